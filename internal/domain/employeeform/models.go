package employeeform

import (
	"strings"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/collection"
	"hrconsole/internal/domain/refdata"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

type Personal struct {
	FirstName            string           `json:"first_name" validate:"required,max=100"`
	MiddleName           string           `json:"middle_name" validate:"max=100"`
	LastName             string           `json:"last_name" validate:"required,max=100"`
	DateOfBirth          string           `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender               string           `json:"gender" validate:"omitempty,oneof=male female other"`
	PersonalEmail        string           `json:"personal_email" validate:"omitempty,email,max=254"`
	Phone                string           `json:"phone" validate:"required,numeric,min=6,max=15"`
	AlternatePhone       string           `json:"alternate_phone" validate:"omitempty,numeric,min=6,max=15"`
	EmergencyContactName string           `json:"emergency_contact_name" validate:"max=120"`
	EmergencyPhone       string           `json:"emergency_phone" validate:"omitempty,numeric,min=6,max=15"`
	EmergencyEmail       string           `json:"emergency_email" validate:"omitempty,email,max=254"`
	Address              string           `json:"address" validate:"max=500"`
	PostalCode           string           `json:"postal_code" validate:"max=12"`
	Location             refdata.Location `json:"location" validate:"-"`
}

type Employment struct {
	EmployeeCode       string      `json:"employee_code" validate:"required,max=40"`
	CompanyEmail       string      `json:"company_email" validate:"omitempty,email,max=254"`
	Org                refdata.Org `json:"org" validate:"-"`
	EmploymentTypeID   string      `json:"employment_type_id"`
	RoleID             string      `json:"role_id"`
	ReportingManagerID string      `json:"reporting_manager_id"`
	JoiningDate        string      `json:"joining_date" validate:"required,datetime=2006-01-02"`
	ConfirmationDate   string      `json:"confirmation_date" validate:"omitempty,datetime=2006-01-02"`
	IsActive           bool        `json:"is_active"`
	BankName           string      `json:"bank_name" validate:"max=120"`
	BankAccountNumber  string      `json:"bank_account_number" validate:"omitempty,numeric,min=6,max=20"`
	IFSCCode           string      `json:"ifsc_code" validate:"omitempty,alphanum,len=11"`
}

type Document struct {
	DocumentType   string           `json:"document_type" validate:"required,max=60"`
	DocumentNumber string           `json:"document_number" validate:"max=60"`
	Country        refdata.Value    `json:"country" validate:"-"`
	IssueDate      string           `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate     string           `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Status         string           `json:"status" validate:"omitempty,oneof=active expired pending"`
	Notes          string           `json:"notes" validate:"max=1000"`
	Files          *attachments.Set `json:"-" validate:"-"`
}

func emptyDocument() Document {
	return Document{Country: refdata.Reference(""), Files: attachments.NewSet()}
}

type Experience struct {
	CompanyName      string `json:"company_name" validate:"required,max=120"`
	JobTitle         string `json:"job_title" validate:"required,max=120"`
	StartDate        string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate          string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Responsibilities string `json:"responsibilities" validate:"max=2000"`
}

// IsBlank reports whether no field has been filled. A record stops being blank,
// and becomes required-complete, as soon as any field holds text.
func (e Experience) IsBlank() bool {
	for _, v := range []string{e.CompanyName, e.JobTitle, e.StartDate, e.EndDate, e.Responsibilities} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// DocumentPatch carries the fields of one document edit; nil fields are left alone.
type DocumentPatch struct {
	DocumentType   *string        `json:"document_type"`
	DocumentNumber *string        `json:"document_number"`
	Country        *refdata.Value `json:"country"`
	IssueDate      *string        `json:"issue_date"`
	ExpiryDate     *string        `json:"expiry_date"`
	Status         *string        `json:"status"`
	Notes          *string        `json:"notes"`
}

type ExperiencePatch struct {
	CompanyName      *string `json:"company_name"`
	JobTitle         *string `json:"job_title"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Responsibilities *string `json:"responsibilities"`
}

func (p ExperiencePatch) apply(e *Experience) {
	set(&e.CompanyName, p.CompanyName)
	set(&e.JobTitle, p.JobTitle)
	set(&e.StartDate, p.StartDate)
	set(&e.EndDate, p.EndDate)
	set(&e.Responsibilities, p.Responsibilities)
}

func set(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// IDSet is an ordered set of server ids scheduled for deletion.
type IDSet []string

func (s *IDSet) Add(id string) bool {
	if id == "" || s.Contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

func (s IDSet) Contains(id string) bool {
	for _, existing := range s {
		if existing == id {
			return true
		}
	}
	return false
}

// Draft is the in-progress employee record.
type Draft struct {
	Personal             Personal
	Employment           Employment
	Documents            *collection.List[Document]
	Experiences          *collection.List[Experience]
	DeletedDocumentIDs   IDSet
	DeletedExperienceIDs IDSet
	DeletedImageIDs      IDSet
}

func newDocumentList() *collection.List[Document] {
	return collection.New(emptyDocument, 1)
}

func newExperienceList() *collection.List[Experience] {
	return collection.New(func() Experience { return Experience{} }, 0)
}

// NewDraft returns the create-mode draft: one empty document and one empty experience.
func NewDraft() *Draft {
	d := &Draft{
		Personal:    Personal{Location: refdata.NewLocation()},
		Employment:  Employment{IsActive: true},
		Documents:   newDocumentList(),
		Experiences: newExperienceList(),
	}
	d.Documents.Add()
	d.Experiences.Add()
	return d
}
