package attachments

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

type Stager struct {
	registry *Registry
	maxBytes int64
}

// NewStager stages files into sets, opening preview handles in registry.
// maxBytes <= 0 disables the size check.
func NewStager(registry *Registry, maxBytes int64) *Stager {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Stager{registry: registry, maxBytes: maxBytes}
}

func (s *Stager) Registry() *Registry {
	return s.registry
}

// Read buffers one upload and classifies it by content.
func (s *Stager) Read(name string, r io.Reader) (File, error) {
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", name, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return File{}, fmt.Errorf("%s: %w", name, ErrFileTooLarge)
	}
	return Classify(name, data)
}

// Classify detects the content type of data; anything but images and PDF is rejected.
func Classify(name string, data []byte) (File, error) {
	if len(data) == 0 {
		return File{}, fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	mtype := mimetype.Detect(data)
	file := File{Name: name, ContentType: mtype.String(), Data: data}
	switch {
	case mtype.Is("application/pdf"):
		file.Format = FormatPDF
	case strings.HasPrefix(mtype.String(), "image/"):
		file.Format = FormatImage
	default:
		return File{}, fmt.Errorf("%s (%s): %w", name, mtype.String(), ErrUnsupportedType)
	}
	return file, nil
}

// Attach appends each file to set with a fresh preview handle. Nothing is
// attached unless every file passes the checks.
func (s *Stager) Attach(set *Set, files []File) ([]string, error) {
	for _, f := range files {
		if f.Format != FormatImage && f.Format != FormatPDF {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrUnsupportedType)
		}
		if s.maxBytes > 0 && int64(f.Size()) > s.maxBytes {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrFileTooLarge)
		}
	}
	handles := make([]string, 0, len(files))
	for _, f := range files {
		handle := s.registry.Open(f)
		set.entries = append(set.entries, entry{kind: KindNew, file: f, handle: handle})
		handles = append(handles, handle)
	}
	return handles, nil
}

// Detach removes the preview at index. For a server-stored image it returns the
// image id to schedule for deletion; for a staged file it drops the file and
// releases its handle.
func (s *Stager) Detach(set *Set, index int) (string, error) {
	if set == nil || index < 0 || index >= len(set.entries) {
		return "", ErrPreviewNotFound
	}
	removed := set.entries[index]
	set.entries = append(set.entries[:index:index], set.entries[index+1:]...)

	if removed.kind == KindExisting {
		return removed.imageID, nil
	}
	if removed.handle != "" {
		if err := s.registry.Release(removed.handle); err != nil {
			return "", err
		}
	}
	return "", nil
}

// Discard releases every staged handle of set, used when its item is removed.
func (s *Stager) Discard(set *Set) {
	for _, handle := range set.handles() {
		_ = s.registry.Release(handle)
	}
}

// Cleanup releases every outstanding handle.
func (s *Stager) Cleanup() int {
	return s.registry.ReleaseAll()
}
