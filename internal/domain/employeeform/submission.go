package employeeform

import (
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"hrconsole/internal/domain/attachments"
	"hrconsole/internal/domain/refdata"
)

type ScalarField struct {
	Name  string
	Value string
}

type DocumentPayload struct {
	ID               *string  `json:"id"`
	DocumentType     string   `json:"document_type"`
	DocumentNumber   *string  `json:"document_number"`
	Country          *string  `json:"country"`
	IssueDate        *string  `json:"issue_date"`
	ExpiryDate       *string  `json:"expiry_date"`
	Status           *string  `json:"status"`
	Notes            *string  `json:"notes"`
	ExistingImageIDs []string `json:"existing_image_ids"`
}

type ExperiencePayload struct {
	ID               *string `json:"id"`
	CompanyName      string  `json:"company_name"`
	JobTitle         string  `json:"job_title"`
	StartDate        *string `json:"start_date"`
	EndDate          *string `json:"end_date"`
	Responsibilities *string `json:"responsibilities"`
}

// DocumentFile ties one staged file to the position of its document in Documents.
type DocumentFile struct {
	DocumentIndex int
	File          attachments.File
}

// Submission is the structured write request. It is flattened to multipart
// only in Encode.
type Submission struct {
	EmployeeID           string
	ActorID              string
	Fields               []ScalarField
	Documents            []DocumentPayload
	Experiences          []ExperiencePayload
	Files                []DocumentFile
	DeletedDocumentIDs   []string
	DeletedExperienceIDs []string
	DeletedImageIDs      []string
}

func nullable(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// locationValue is what the server stores for a location level: the id of a
// reference selection or the manual text.
func locationValue(v refdata.Value) string {
	if v.IsManual() {
		return strings.TrimSpace(v.Text)
	}
	return v.ID
}

// BuildSubmission turns the draft into a write request. Blank experiences added
// in this session are left out; every document is sent.
func BuildSubmission(d *Draft) (*Submission, error) {
	if d == nil || d.Documents == nil || d.Experiences == nil {
		return nil, fmt.Errorf("build submission: incomplete draft")
	}
	p, e := d.Personal, d.Employment
	sub := &Submission{
		Fields: []ScalarField{
			{"first_name", p.FirstName},
			{"middle_name", p.MiddleName},
			{"last_name", p.LastName},
			{"date_of_birth", p.DateOfBirth},
			{"gender", p.Gender},
			{"personal_email", p.PersonalEmail},
			{"phone", p.Phone},
			{"alternate_phone", p.AlternatePhone},
			{"emergency_contact_name", p.EmergencyContactName},
			{"emergency_phone", p.EmergencyPhone},
			{"emergency_email", p.EmergencyEmail},
			{"address", p.Address},
			{"postal_code", p.PostalCode},
			{"country", locationValue(p.Location.Country)},
			{"state", locationValue(p.Location.State)},
			{"city", locationValue(p.Location.City)},
			{"employee_code", e.EmployeeCode},
			{"company_email", e.CompanyEmail},
			{"department_id", e.Org.DepartmentID},
			{"designation_id", e.Org.DesignationID},
			{"employment_type_id", e.EmploymentTypeID},
			{"role_id", e.RoleID},
			{"reporting_manager_id", e.ReportingManagerID},
			{"joining_date", e.JoiningDate},
			{"confirmation_date", e.ConfirmationDate},
			{"is_active", strconv.FormatBool(e.IsActive)},
			{"bank_name", e.BankName},
			{"bank_account_number", e.BankAccountNumber},
			{"ifsc_code", e.IFSCCode},
		},
		Documents:            []DocumentPayload{},
		Experiences:          []ExperiencePayload{},
		DeletedDocumentIDs:   append([]string{}, d.DeletedDocumentIDs...),
		DeletedExperienceIDs: append([]string{}, d.DeletedExperienceIDs...),
		DeletedImageIDs:      append([]string{}, d.DeletedImageIDs...),
	}

	for i, entry := range d.Documents.Entries() {
		doc := entry.Item
		existing := doc.Files.ExistingImageIDs()
		if existing == nil {
			existing = []string{}
		}
		sub.Documents = append(sub.Documents, DocumentPayload{
			ID:               nullable(entry.ServerID),
			DocumentType:     doc.DocumentType,
			DocumentNumber:   nullable(doc.DocumentNumber),
			Country:          nullable(locationValue(doc.Country)),
			IssueDate:        nullable(doc.IssueDate),
			ExpiryDate:       nullable(doc.ExpiryDate),
			Status:           nullable(doc.Status),
			Notes:            nullable(doc.Notes),
			ExistingImageIDs: existing,
		})
		for _, file := range doc.Files.Files() {
			sub.Files = append(sub.Files, DocumentFile{DocumentIndex: i, File: file})
		}
	}

	for _, entry := range d.Experiences.Entries() {
		exp := entry.Item
		if entry.IsNew() && exp.IsBlank() {
			continue
		}
		sub.Experiences = append(sub.Experiences, ExperiencePayload{
			ID:               nullable(entry.ServerID),
			CompanyName:      exp.CompanyName,
			JobTitle:         exp.JobTitle,
			StartDate:        nullable(exp.StartDate),
			EndDate:          nullable(exp.EndDate),
			Responsibilities: nullable(exp.Responsibilities),
		})
	}
	return sub, nil
}

// DocumentFilesField is the multipart name that correlates files with documents[n].
func DocumentFilesField(index int) string {
	return "document_files_" + strconv.Itoa(index)
}

// Encode writes the submission as multipart form parts. Deleted ids are
// repeated fields, one part per id.
func (s *Submission) Encode(w *multipart.Writer) error {
	for _, f := range s.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return err
		}
	}
	if s.ActorID != "" {
		if err := w.WriteField("updated_by", s.ActorID); err != nil {
			return err
		}
	}

	documents, err := json.Marshal(s.Documents)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := w.WriteField("documents", string(documents)); err != nil {
		return err
	}
	experiences, err := json.Marshal(s.Experiences)
	if err != nil {
		return fmt.Errorf("encode experience: %w", err)
	}
	if err := w.WriteField("experience", string(experiences)); err != nil {
		return err
	}

	for _, df := range s.Files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     DocumentFilesField(df.DocumentIndex),
			"filename": df.File.Name,
		}))
		contentType := df.File.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := part.Write(df.File.Data); err != nil {
			return err
		}
	}

	repeated := []struct {
		name string
		ids  []string
	}{
		{"deleted_document_ids", s.DeletedDocumentIDs},
		{"deleted_experience_ids", s.DeletedExperienceIDs},
		{"deleted_image_ids", s.DeletedImageIDs},
	}
	for _, group := range repeated {
		for _, id := range group.ids {
			if err := w.WriteField(group.name, id); err != nil {
				return err
			}
		}
	}
	return nil
}
