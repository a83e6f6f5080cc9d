package employeeform

import (
	"io"
	"strings"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/collection"
	"hrconsole/internal/domain/refdata"
)

func (f *Form) AddDocument() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return "", err
	}
	return f.draft.Documents.Add(), nil
}

// CopyDocument is the legacy creation path: the new document copies the scalar
// fields of key but starts with no attachments.
func (f *Form) CopyDocument(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return "", err
	}
	return f.draft.Documents.AddFrom(key, func(d Document) Document {
		d.Files = attachments.NewSet()
		return d
	})
}

func (f *Form) UpdateDocument(key string, patch DocumentPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	if patch.Country != nil {
		v := *patch.Country
		if v.IsManual() {
			v.ID = ""
		} else {
			v = refdata.Reference(v.ID)
			if err := f.requireListed(refdata.KindCountry, v.ID); err != nil {
				return err
			}
		}
		patch.Country = &v
	}
	return f.draft.Documents.Update(key, func(d *Document) {
		set(&d.DocumentType, patch.DocumentType)
		set(&d.DocumentNumber, patch.DocumentNumber)
		set(&d.IssueDate, patch.IssueDate)
		set(&d.ExpiryDate, patch.ExpiryDate)
		set(&d.Notes, patch.Notes)
		if patch.Status != nil {
			d.Status = strings.ToLower(strings.TrimSpace(*patch.Status))
		}
		if patch.Country != nil {
			d.Country = *patch.Country
		}
	})
}

// RemoveDocument drops the document at once. A server-backed document is
// scheduled for deletion with the next submission.
func (f *Form) RemoveDocument(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	removed, err := f.draft.Documents.Remove(key)
	if err != nil {
		return err
	}
	f.stager.Discard(removed.Item.Files)
	if !removed.IsNew() {
		f.draft.DeletedDocumentIDs.Add(removed.ServerID)
	}
	return nil
}

// CanRemoveDocument drives the disabled state of the remove button.
func (f *Form) CanRemoveDocument() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Documents.CanRemove()
}

// AttachFiles stages files on a document and returns their preview handles.
func (f *Form) AttachFiles(key string, files []attachments.File) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return nil, err
	}
	entry, ok := f.draft.Documents.Get(key)
	if !ok {
		return nil, collection.ErrNotFound
	}
	return f.stager.Attach(entry.Item.Files, files)
}

// StageFile reads and classifies one upload without attaching it.
func (f *Form) StageFile(name string, r io.Reader) (attachments.File, error) {
	return f.stager.Read(name, r)
}

// DetachPreview removes the preview at index. Server-stored images are
// scheduled for deletion; staged files are dropped and their handle released.
func (f *Form) DetachPreview(key string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	entry, ok := f.draft.Documents.Get(key)
	if !ok {
		return collection.ErrNotFound
	}
	imageID, err := f.stager.Detach(entry.Item.Files, index)
	if err != nil {
		return err
	}
	if imageID != "" {
		f.draft.DeletedImageIDs.Add(imageID)
	}
	return nil
}
