package employeeform

import (
	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/refdata"
)

type DocumentView struct {
	Key      string                `json:"key"`
	ServerID string                `json:"serverId,omitempty"`
	Document Document              `json:"document"`
	Previews []attachments.Preview `json:"previews"`
}

type ExperienceView struct {
	Key        string     `json:"key"`
	ServerID   string     `json:"serverId,omitempty"`
	Experience Experience `json:"experience"`
	Required   bool       `json:"required"`
}

type DeletedView struct {
	Documents   []string `json:"documents"`
	Experiences []string `json:"experiences"`
	Images      []string `json:"images"`
}

// View is a render snapshot of the form.
type View struct {
	Mode              Mode                          `json:"mode"`
	EmployeeID        string                        `json:"employeeId,omitempty"`
	State             State                         `json:"state"`
	Personal          Personal                      `json:"personal"`
	Employment        Employment                    `json:"employment"`
	Documents         []DocumentView                `json:"documents"`
	Experiences       []ExperienceView              `json:"experiences"`
	Deleted           DeletedView                   `json:"deleted"`
	CanRemoveDocument bool                          `json:"canRemoveDocument"`
	Lists             map[refdata.Kind]refdata.List `json:"lists"`
	FieldErrors       map[string]string             `json:"fieldErrors"`
	PersonalErrors    map[string]string             `json:"personalErrors"`
	EmploymentErrors  map[string]string             `json:"employmentErrors"`
	LastResult        *Result                       `json:"lastResult,omitempty"`
}

func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := f.draft
	v := View{
		Mode:              f.mode,
		EmployeeID:        f.employeeID,
		State:             f.state,
		Personal:          d.Personal,
		Employment:        d.Employment,
		Documents:         make([]DocumentView, 0, d.Documents.Len()),
		Experiences:       make([]ExperienceView, 0, d.Experiences.Len()),
		CanRemoveDocument: d.Documents.CanRemove(),
		Lists:             make(map[refdata.Kind]refdata.List, len(f.lists)),
		FieldErrors:       f.fieldErrors.Snapshot(),
		PersonalErrors:    f.personal.Errors(),
		EmploymentErrors:  f.employment.Errors(),
		Deleted: DeletedView{
			Documents:   append([]string{}, d.DeletedDocumentIDs...),
			Experiences: append([]string{}, d.DeletedExperienceIDs...),
			Images:      append([]string{}, d.DeletedImageIDs...),
		},
	}
	for kind, list := range f.lists {
		v.Lists[kind] = list
	}
	for _, entry := range d.Documents.Entries() {
		v.Documents = append(v.Documents, DocumentView{
			Key:      entry.Key,
			ServerID: entry.ServerID,
			Document: entry.Item,
			Previews: entry.Item.Files.Previews(),
		})
	}
	for _, entry := range d.Experiences.Entries() {
		v.Experiences = append(v.Experiences, ExperienceView{
			Key:        entry.Key,
			ServerID:   entry.ServerID,
			Experience: entry.Item,
			Required:   !entry.IsNew() || !entry.Item.IsBlank(),
		})
	}
	if f.lastResult != nil {
		result := *f.lastResult
		v.LastResult = &result
	}
	return v
}
