package attachments

type Kind string

const (
	KindExisting Kind = "existing"
	KindNew      Kind = "new"
)

type Format string

const (
	FormatImage Format = "image"
	FormatPDF   Format = "pdf"
)

// File is a locally staged upload that has not reached the server yet.
type File struct {
	Name        string
	ContentType string
	Format      Format
	Data        []byte
}

func (f File) Size() int {
	return len(f.Data)
}

// Preview is the rendered form of one attachment entry.
type Preview struct {
	Kind    Kind   `json:"kind"`
	ImageID string `json:"imageId,omitempty"`
	URL     string `json:"url,omitempty"`
	Handle  string `json:"handle,omitempty"`
	Name    string `json:"name,omitempty"`
	Format  Format `json:"format,omitempty"`
	Size    int    `json:"size,omitempty"`
}

type entry struct {
	kind    Kind
	imageID string
	url     string
	file    File
	handle  string
}

// Set is the ordered attachment list of one collection item. Existing and new
// entries interleave freely; the files to upload are the new entries in order.
type Set struct {
	entries []entry
}

func NewSet() *Set {
	return &Set{}
}

// AddExisting records a server-stored image loaded with the record.
func (s *Set) AddExisting(imageID, url string) {
	s.entries = append(s.entries, entry{kind: KindExisting, imageID: imageID, url: url})
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Files returns the staged uploads in preview order.
func (s *Set) Files() []File {
	if s == nil {
		return nil
	}
	var out []File
	for _, e := range s.entries {
		if e.kind == KindNew {
			out = append(out, e.file)
		}
	}
	return out
}

func (s *Set) Previews() []Preview {
	if s == nil {
		return nil
	}
	out := make([]Preview, 0, len(s.entries))
	for _, e := range s.entries {
		p := Preview{Kind: e.kind}
		switch e.kind {
		case KindExisting:
			p.ImageID = e.imageID
			p.URL = e.url
		case KindNew:
			p.Handle = e.handle
			p.Name = e.file.Name
			p.Format = e.file.Format
			p.Size = e.file.Size()
		}
		out = append(out, p)
	}
	return out
}

func (s *Set) ExistingImageIDs() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, e := range s.entries {
		if e.kind == KindExisting {
			out = append(out, e.imageID)
		}
	}
	return out
}

func (s *Set) handles() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, e := range s.entries {
		if e.kind == KindNew && e.handle != "" {
			out = append(out, e.handle)
		}
	}
	return out
}
