package employeeform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/collection"
	"hrconsole/internal/domain/dupcheck"
	"hrconsole/internal/domain/refdata"
	"hrconsole/internal/hrapi"
)

// Form is one open employee form. Every exported method is one UI event; the
// mutex serialises them the way a single event loop would.
type Form struct {
	mu      sync.Mutex
	deps    Deps
	session auth.Session

	mode       Mode
	employeeID string
	draft      *Draft
	lists      map[refdata.Kind]refdata.List

	fieldErrors *dupcheck.ErrorMap
	personal    *dupcheck.Validator
	employment  *dupcheck.Validator
	stager      *attachments.Stager

	state      State
	lastResult *Result
	// submitted is set once a write succeeds; the draft has been handed off
	// and only Reset reopens it for submission.
	submitted bool
	closed    bool
}

var topLevelKinds = []refdata.Kind{
	refdata.KindDepartment,
	refdata.KindEmploymentType,
	refdata.KindRole,
	refdata.KindCountry,
	refdata.KindManager,
}

func newForm(deps Deps, session auth.Session) (*Form, error) {
	if deps.Refs == nil || deps.Gateway == nil || deps.Checker == nil {
		return nil, errors.New("employee form: missing dependencies")
	}
	f := &Form{
		deps:        deps,
		session:     session,
		mode:        ModeCreate,
		draft:       NewDraft(),
		lists:       map[refdata.Kind]refdata.List{},
		fieldErrors: dupcheck.NewErrorMap(),
		stager:      attachments.NewStager(attachments.NewRegistry(), deps.Options.MaxUploadBytes),
		state:       StateIdle,
	}
	for _, kind := range refdata.Kinds {
		f.lists[kind] = refdata.List{Kind: kind, Items: []refdata.Item{}}
	}
	f.startValidators("")
	return f, nil
}

// New opens a create-mode form with the top-level reference lists loaded.
func New(ctx context.Context, deps Deps, session auth.Session) (*Form, error) {
	f, err := newForm(deps, session)
	if err != nil {
		return nil, err
	}
	f.loadTopLevel(ctx)
	slog.Info("employee form opened", "mode", ModeCreate, "userId", session.UserID)
	return f, nil
}

// Load opens an edit-mode form for an existing employee. Stored location values
// missing from the fresh lists come back in manual mode, verbatim.
func Load(ctx context.Context, deps Deps, session auth.Session, employeeID string) (*Form, error) {
	f, err := newForm(deps, session)
	if err != nil {
		return nil, err
	}
	record, err := deps.Gateway.GetEmployee(ctx, employeeID)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	if record.Employee.ID == "" {
		record.Employee.ID = hrapi.ID(employeeID)
	}
	f.loadTopLevel(ctx)
	f.applyRecord(ctx, record)
	slog.Info("employee form opened", "mode", ModeEdit, "employeeId", f.employeeID, "userId", session.UserID)
	return f, nil
}

func (f *Form) startValidators(excludeID string) {
	opts := dupcheck.Options{
		Debounce: f.deps.Options.DupCheckDebounce,
		Timeout:  f.deps.Options.RemoteTimeout,
		Limiter:  f.deps.limiter(),
		OnCheck:  f.deps.recorder().DupCheck,
	}
	f.personal = dupcheck.New(f.deps.Checker, f.fieldErrors, excludeID, opts)
	f.employment = dupcheck.New(f.deps.Checker, f.fieldErrors, excludeID, opts)
}

func (f *Form) loadTopLevel(ctx context.Context) {
	loaded := make([]refdata.List, len(topLevelKinds))
	var g errgroup.Group
	for i, kind := range topLevelKinds {
		i, kind := i, kind
		g.Go(func() error {
			loaded[i] = f.deps.Refs.Load(ctx, kind, "")
			return nil
		})
	}
	_ = g.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, list := range loaded {
		f.lists[list.Kind] = list
	}
}

func (f *Form) applyRecord(ctx context.Context, record *hrapi.EmployeeRecord) {
	emp := record.Employee

	f.mu.Lock()
	countries := f.lists[refdata.KindCountry]
	f.mu.Unlock()

	country := refdata.Resolve(countries, emp.Country)
	states := f.dependentList(ctx, refdata.KindState, country)
	state := resolveDependent(country, states, emp.State)
	cities := f.dependentList(ctx, refdata.KindCity, state)
	city := resolveDependent(state, cities, emp.City)

	departmentID := emp.DepartmentID.String()
	designations := refdata.List{Kind: refdata.KindDesignation, ParentID: departmentID, Items: []refdata.Item{}}
	if departmentID != "" {
		designations = f.deps.Refs.Load(ctx, refdata.KindDesignation, departmentID)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.mode = ModeEdit
	f.employeeID = emp.ID.String()
	f.lists[refdata.KindState] = states
	f.lists[refdata.KindCity] = cities
	f.lists[refdata.KindDesignation] = designations

	d := &Draft{
		Personal: Personal{
			FirstName:            emp.FirstName,
			MiddleName:           emp.MiddleName,
			LastName:             emp.LastName,
			DateOfBirth:          emp.DateOfBirth,
			Gender:               emp.Gender,
			PersonalEmail:        emp.PersonalEmail,
			Phone:                dupcheck.Normalize(dupcheck.FieldPhone, emp.Phone),
			AlternatePhone:       dupcheck.Normalize(dupcheck.FieldAlternatePhone, emp.AlternatePhone),
			EmergencyContactName: emp.EmergencyContactName,
			EmergencyPhone:       dupcheck.Normalize(dupcheck.FieldEmergencyPhone, emp.EmergencyPhone),
			EmergencyEmail:       emp.EmergencyEmail,
			Address:              emp.Address,
			PostalCode:           emp.PostalCode,
			Location:             refdata.Location{Country: country, State: state, City: city},
		},
		Employment: Employment{
			EmployeeCode:       emp.EmployeeCode,
			CompanyEmail:       emp.CompanyEmail,
			Org:                refdata.Org{DepartmentID: departmentID},
			EmploymentTypeID:   emp.EmploymentTypeID.String(),
			RoleID:             emp.RoleID.String(),
			ReportingManagerID: emp.ReportingManagerID.String(),
			JoiningDate:        emp.JoiningDate,
			ConfirmationDate:   emp.ConfirmationDate,
			IsActive:           emp.IsActive,
			BankName:           emp.BankName,
			BankAccountNumber:  dupcheck.Normalize(dupcheck.FieldBankAccountNumber, emp.BankAccountNumber),
			IFSCCode:           emp.IFSCCode,
		},
	}

	designationID := emp.DesignationID.String()
	if err := d.Employment.Org.SetDesignation(designationID, designations); err != nil {
		if designations.Failed {
			// Cannot verify against a list that failed to load; keep what is stored.
			d.Employment.Org.DesignationID = designationID
		} else {
			slog.Warn("stored designation does not belong to department", "employeeId", f.employeeID, "designationId", designationID, "departmentId", departmentID)
		}
	}

	d.Documents = newDocumentList()
	for _, doc := range record.Documents {
		item := Document{
			DocumentType:   doc.DocumentType,
			DocumentNumber: doc.DocumentNumber,
			Country:        refdata.Resolve(countries, doc.Country),
			IssueDate:      doc.IssueDate,
			ExpiryDate:     doc.ExpiryDate,
			Status:         doc.Status,
			Notes:          doc.Notes,
			Files:          attachments.NewSet(),
		}
		for _, img := range doc.Images {
			item.Files.AddExisting(img.ImageID.String(), img.URL)
		}
		restoreOrAdd(d.Documents, doc.ID.String(), item)
	}
	if d.Documents.Len() == 0 {
		d.Documents.Add()
	}

	d.Experiences = newExperienceList()
	for _, exp := range record.Experiences {
		restoreOrAdd(d.Experiences, exp.ID.String(), Experience{
			CompanyName:      exp.CompanyName,
			JobTitle:         exp.JobTitle,
			StartDate:        exp.StartDate,
			EndDate:          exp.EndDate,
			Responsibilities: exp.Responsibilities,
		})
	}
	if d.Experiences.Len() == 0 {
		d.Experiences.Add()
	}
	f.draft = d

	f.personal.Close()
	f.employment.Close()
	f.startValidators(f.employeeID)
	for field, value := range uniqueValues(d) {
		f.validatorFor(field).Seed(field, value)
	}
}

// dependentList loads the list scoped by parent, or an empty one when the
// parent is manual or unselected.
func (f *Form) dependentList(ctx context.Context, kind refdata.Kind, parent refdata.Value) refdata.List {
	if parent.IsManual() || parent.ID == "" {
		return refdata.List{Kind: kind, Items: []refdata.Item{}}
	}
	return f.deps.Refs.Load(ctx, kind, parent.ID)
}

func restoreOrAdd[T any](l *collection.List[T], serverID string, item T) {
	if serverID != "" {
		l.Restore(serverID, item)
		return
	}
	key := l.Add()
	_ = l.Update(key, func(dst *T) { *dst = item })
}

func resolveDependent(parent refdata.Value, list refdata.List, stored string) refdata.Value {
	if parent.IsManual() {
		return refdata.Manual(stored)
	}
	return refdata.Resolve(list, stored)
}

// Close releases every preview handle and stops pending duplicate checks.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.personal.Close()
	f.employment.Close()
	released := f.stager.Cleanup()
	slog.Info("employee form closed", "employeeId", f.employeeID, "releasedHandles", released)
}

// Reset drops the current draft and starts over with an empty create-mode draft.
func (f *Form) Reset(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.state.inFlight() {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	f.personal.Close()
	f.employment.Close()
	f.stager.Cleanup()
	f.fieldErrors.Reset()
	f.mode = ModeCreate
	f.employeeID = ""
	f.draft = NewDraft()
	f.lastResult = nil
	f.submitted = false
	for _, kind := range []refdata.Kind{refdata.KindDesignation, refdata.KindState, refdata.KindCity} {
		f.lists[kind] = refdata.List{Kind: kind, Items: []refdata.Item{}}
	}
	f.startValidators("")
	f.mu.Unlock()

	f.loadTopLevel(ctx)
	return nil
}

// Session is the identity the form was opened with.
func (f *Form) Session() auth.Session {
	return f.session
}

// Preview returns the staged file behind a preview handle.
func (f *Form) Preview(handle string) (attachments.File, bool) {
	return f.stager.Registry().Lookup(handle)
}

func (f *Form) checkOpen() error {
	if f.closed {
		return ErrClosed
	}
	return nil
}
