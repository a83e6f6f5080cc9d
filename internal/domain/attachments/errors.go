package attachments

import "errors"

var (
	ErrHandleReleased  = errors.New("preview handle already released")
	ErrUnsupportedType = errors.New("only images and PDF files can be attached")
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrPreviewNotFound = errors.New("preview not found")
	ErrEmptyFile       = errors.New("file is empty")
)
