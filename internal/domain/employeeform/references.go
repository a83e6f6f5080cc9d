package employeeform

import (
	"context"
	"log/slog"

	"hrconsole/internal/domain/refdata"
)

func emptyList(kind refdata.Kind, parentID string) refdata.List {
	return refdata.List{Kind: kind, ParentID: parentID, Items: []refdata.Item{}}
}

// parentIDLocked is the id a dependent list is currently scoped by; empty when
// the parent is unselected or manual.
func (f *Form) parentIDLocked(kind refdata.Kind) string {
	switch kind {
	case refdata.KindDesignation:
		return f.draft.Employment.Org.DepartmentID
	case refdata.KindState:
		if c := f.draft.Personal.Location.Country; !c.IsManual() {
			return c.ID
		}
	case refdata.KindCity:
		if s := f.draft.Personal.Location.State; !s.IsManual() {
			return s.ID
		}
	}
	return ""
}

// loadDependent fetches a list outside the lock and commits it only if the
// parent selection has not moved on in the meantime.
func (f *Form) loadDependent(ctx context.Context, kind refdata.Kind, parentID string) {
	if parentID == "" {
		return
	}
	list := f.deps.Refs.Load(ctx, kind, parentID)
	f.commitList(kind, parentID, list)
}

func (f *Form) commitList(kind refdata.Kind, parentID string, list refdata.List) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return false
	}
	if _, dependent := kind.Parent(); dependent && f.parentIDLocked(kind) != parentID {
		return false
	}
	f.lists[kind] = list
	return true
}

func (f *Form) requireListed(kind refdata.Kind, id string) error {
	if id == "" {
		return nil
	}
	if !f.lists[kind].Contains(id) {
		return refdata.ErrUnknownReference
	}
	return nil
}

// SelectLocation changes country, state or city. Changing a level clears the
// levels below it and reloads the next list for reference selections.
func (f *Form) SelectLocation(ctx context.Context, part refdata.Kind, v refdata.Value) error {
	f.mu.Lock()
	if err := f.checkOpen(); err != nil {
		f.mu.Unlock()
		return err
	}
	if v.Mode == "" {
		v.Mode = refdata.ModeReference
	}
	if v.IsManual() {
		v.ID = ""
	} else {
		v = refdata.Reference(v.ID)
	}
	loc := &f.draft.Personal.Location

	var next refdata.Kind
	var changed bool
	switch part {
	case refdata.KindCountry:
		if !v.IsManual() {
			if err := f.requireListed(refdata.KindCountry, v.ID); err != nil {
				f.mu.Unlock()
				return err
			}
		}
		changed = loc.SetCountry(v)
		next = refdata.KindState
		if changed {
			f.lists[refdata.KindCity] = emptyList(refdata.KindCity, "")
		}
	case refdata.KindState:
		if !v.IsManual() {
			if err := f.requireListed(refdata.KindState, v.ID); err != nil {
				f.mu.Unlock()
				return err
			}
		}
		var err error
		if changed, err = loc.SetState(v); err != nil {
			f.mu.Unlock()
			return err
		}
		next = refdata.KindCity
	case refdata.KindCity:
		if !v.IsManual() {
			if err := f.requireListed(refdata.KindCity, v.ID); err != nil {
				f.mu.Unlock()
				return err
			}
		}
		_, err := loc.SetCity(v)
		f.mu.Unlock()
		return err
	default:
		f.mu.Unlock()
		return ErrUnknownPart
	}

	parentID := ""
	if changed {
		parentID = f.parentIDLocked(next)
		f.lists[next] = emptyList(next, parentID)
	}
	f.mu.Unlock()

	f.loadDependent(ctx, next, parentID)
	return nil
}

// SelectDepartment always clears the designation when the department changes.
func (f *Form) SelectDepartment(ctx context.Context, id string) error {
	f.mu.Lock()
	if err := f.checkOpen(); err != nil {
		f.mu.Unlock()
		return err
	}
	if err := f.requireListed(refdata.KindDepartment, id); err != nil {
		f.mu.Unlock()
		return err
	}
	changed := f.draft.Employment.Org.SetDepartment(id)
	parentID := f.draft.Employment.Org.DepartmentID
	if changed {
		f.lists[refdata.KindDesignation] = emptyList(refdata.KindDesignation, parentID)
	}
	f.mu.Unlock()

	if changed {
		f.loadDependent(ctx, refdata.KindDesignation, parentID)
	}
	return nil
}

func (f *Form) SelectDesignation(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.draft.Employment.Org.SetDesignation(id, f.lists[refdata.KindDesignation])
}

// SelectReference sets the flat employment references: employment type, role
// and reporting manager.
func (f *Form) SelectReference(kind refdata.Kind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return err
	}
	target, err := f.referenceTargetLocked(kind)
	if err != nil {
		return err
	}
	if err := f.requireListed(kind, id); err != nil {
		return err
	}
	*target = id
	return nil
}

func (f *Form) referenceTargetLocked(kind refdata.Kind) (*string, error) {
	switch kind {
	case refdata.KindEmploymentType:
		return &f.draft.Employment.EmploymentTypeID, nil
	case refdata.KindRole:
		return &f.draft.Employment.RoleID, nil
	case refdata.KindManager:
		return &f.draft.Employment.ReportingManagerID, nil
	}
	return nil, ErrNotSelectable
}

// CreateReference runs the inline create flow: post, reload the authoritative
// list, then select the new id.
func (f *Form) CreateReference(ctx context.Context, kind refdata.Kind, name string) (refdata.Created, error) {
	f.mu.Lock()
	if err := f.checkOpen(); err != nil {
		f.mu.Unlock()
		return refdata.Created{}, err
	}
	input := refdata.CreateInput{Name: name}
	if parent, ok := kind.Parent(); ok {
		if parent != refdata.KindDepartment {
			f.mu.Unlock()
			return refdata.Created{}, refdata.ErrNotCreatable
		}
		input.ParentID = f.draft.Employment.Org.DepartmentID
	}
	f.mu.Unlock()

	created, err := f.deps.Refs.CreateInline(ctx, kind, input)
	if err != nil {
		// The reload still happened; keep the fresher list even without a selection.
		if created.List.Kind != "" {
			f.commitList(kind, input.ParentID, created.List)
		}
		return created, err
	}
	if !f.commitList(kind, input.ParentID, created.List) {
		return created, nil
	}

	switch kind {
	case refdata.KindDepartment:
		err = f.SelectDepartment(ctx, created.ID)
	case refdata.KindDesignation:
		err = f.SelectDesignation(created.ID)
	default:
		err = f.SelectReference(kind, created.ID)
	}
	if err != nil {
		slog.Warn("created reference could not be selected", "kind", kind, "id", created.ID, "err", err)
	}
	return created, err
}

// RefreshReference re-fetches one list for its current parent.
func (f *Form) RefreshReference(ctx context.Context, kind refdata.Kind) (refdata.List, error) {
	f.mu.Lock()
	if err := f.checkOpen(); err != nil {
		f.mu.Unlock()
		return refdata.List{}, err
	}
	parentID := f.parentIDLocked(kind)
	f.mu.Unlock()

	list := f.deps.Refs.Refresh(ctx, kind, parentID)
	f.commitList(kind, parentID, list)
	return list, nil
}
