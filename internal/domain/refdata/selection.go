package refdata

import (
	"errors"
	"strings"
)

type Mode string

const (
	ModeReference Mode = "reference"
	ModeManual    Mode = "manual"
)

var ErrManualParent = errors.New("parent is entered manually; this field must be manual too")

// Value is either a reference-list selection or free text, never both.
type Value struct {
	Mode Mode   `json:"mode"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

func Reference(id string) Value {
	return Value{Mode: ModeReference, ID: strings.TrimSpace(id)}
}

func Manual(text string) Value {
	return Value{Mode: ModeManual, Text: text}
}

func (v Value) IsManual() bool {
	return v.Mode == ModeManual
}

func (v Value) IsEmpty() bool {
	if v.IsManual() {
		return strings.TrimSpace(v.Text) == ""
	}
	return v.ID == ""
}

// Display is the text shown for v: the list name for a reference, the text otherwise.
func (v Value) Display(list List) string {
	if v.IsManual() {
		return v.Text
	}
	if item, ok := list.Find(v.ID); ok {
		return item.Name
	}
	return ""
}

// Resolve maps a stored value onto list. Anything the list does not know is
// kept verbatim in manual mode so existing data is never dropped.
func Resolve(list List, stored string) Value {
	trimmed := strings.TrimSpace(stored)
	if trimmed == "" {
		return Reference("")
	}
	if item, ok := list.Find(trimmed); ok {
		return Reference(item.ID)
	}
	for _, item := range list.Items {
		if strings.EqualFold(strings.TrimSpace(item.Name), trimmed) {
			return Reference(item.ID)
		}
	}
	return Manual(stored)
}

// Location is the country -> state -> city cascade.
type Location struct {
	Country Value `json:"country"`
	State   Value `json:"state"`
	City    Value `json:"city"`
}

func NewLocation() Location {
	return Location{Country: Reference(""), State: Reference(""), City: Reference("")}
}

func cleared(parent Value) Value {
	if parent.IsManual() {
		return Manual("")
	}
	return Reference("")
}

// SetCountry replaces the country and clears state and city when it changed.
// A manual country forces state and city into manual mode. Editing the text of
// an already manual country keeps the dependents.
func (l *Location) SetCountry(v Value) bool {
	if v == l.Country {
		return false
	}
	if v.IsManual() && l.Country.IsManual() {
		l.Country = v
		return false
	}
	l.Country = v
	l.State = cleared(v)
	l.City = cleared(v)
	return true
}

func (l *Location) SetState(v Value) (bool, error) {
	if l.Country.IsManual() && !v.IsManual() {
		return false, ErrManualParent
	}
	if v == l.State {
		return false, nil
	}
	if v.IsManual() && l.State.IsManual() {
		l.State = v
		return false, nil
	}
	l.State = v
	l.City = cleared(v)
	return true, nil
}

func (l *Location) SetCity(v Value) (bool, error) {
	if l.State.IsManual() && !v.IsManual() {
		return false, ErrManualParent
	}
	if v == l.City {
		return false, nil
	}
	l.City = v
	return true, nil
}

// Org holds the department -> designation pair. A designation that does not
// belong to the selected department is never stored.
type Org struct {
	DepartmentID  string `json:"departmentId"`
	DesignationID string `json:"designationId"`
}

// SetDepartment changes the department and always clears the designation on change.
func (o *Org) SetDepartment(id string) bool {
	id = strings.TrimSpace(id)
	if id == o.DepartmentID {
		return false
	}
	o.DepartmentID = id
	o.DesignationID = ""
	return true
}

// SetDesignation accepts id only if designations lists it under the current department.
func (o *Org) SetDesignation(id string, designations List) error {
	id = strings.TrimSpace(id)
	if id == "" {
		o.DesignationID = ""
		return nil
	}
	if o.DepartmentID == "" {
		return ErrParentRequired
	}
	item, ok := designations.Find(id)
	if !ok {
		return ErrUnknownReference
	}
	if item.ParentID != o.DepartmentID || (designations.ParentID != "" && designations.ParentID != o.DepartmentID) {
		return ErrDesignationMismatch
	}
	o.DesignationID = id
	return nil
}
