package refdata

import "errors"

var (
	ErrNotCreatable        = errors.New("reference kind does not support inline create")
	ErrParentRequired      = errors.New("parent selection required")
	ErrCreatedNotListed    = errors.New("created reference missing from refreshed list")
	ErrDesignationMismatch = errors.New("designation does not belong to the selected department")
	ErrUnknownReference    = errors.New("reference id not present in list")
	ErrEmptyName           = errors.New("reference name is required")
)
