package hrapi

import (
	"bytes"
	"encoding/json"
)

// ID accepts both JSON strings and numbers; the HR API is not consistent.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

type reference struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	DepartmentID ID     `json:"departmentId"`
	CountryID    ID     `json:"countryId"`
	StateID      ID     `json:"stateId"`
}

type referenceEnvelope struct {
	Items []reference `json:"items"`
}

type createdReference struct {
	ID ID `json:"id"`
}

type Employee struct {
	ID                   ID     `json:"id"`
	EmployeeCode         string `json:"employeeCode"`
	FirstName            string `json:"firstName"`
	MiddleName           string `json:"middleName"`
	LastName             string `json:"lastName"`
	DateOfBirth          string `json:"dateOfBirth"`
	Gender               string `json:"gender"`
	PersonalEmail        string `json:"personalEmail"`
	Phone                string `json:"phone"`
	AlternatePhone       string `json:"alternatePhone"`
	EmergencyContactName string `json:"emergencyContactName"`
	EmergencyPhone       string `json:"emergencyPhone"`
	EmergencyEmail       string `json:"emergencyEmail"`
	Address              string `json:"address"`
	PostalCode           string `json:"postalCode"`
	Country              string `json:"country"`
	State                string `json:"state"`
	City                 string `json:"city"`
	CompanyEmail         string `json:"companyEmail"`
	DepartmentID         ID     `json:"departmentId"`
	DesignationID        ID     `json:"designationId"`
	EmploymentTypeID     ID     `json:"employmentTypeId"`
	RoleID               ID     `json:"roleId"`
	ReportingManagerID   ID     `json:"reportingManagerId"`
	JoiningDate          string `json:"joiningDate"`
	ConfirmationDate     string `json:"confirmationDate"`
	IsActive             bool   `json:"isActive"`
	BankName             string `json:"bankName"`
	BankAccountNumber    string `json:"bankAccountNumber"`
	IFSCCode             string `json:"ifscCode"`
}

type Image struct {
	ImageID ID     `json:"imageId"`
	URL     string `json:"url"`
}

type Document struct {
	ID             ID      `json:"id"`
	DocumentType   string  `json:"documentType"`
	DocumentNumber string  `json:"documentNumber"`
	Country        string  `json:"country"`
	IssueDate      string  `json:"issueDate"`
	ExpiryDate     string  `json:"expiryDate"`
	Status         string  `json:"status"`
	Notes          string  `json:"notes"`
	Images         []Image `json:"images"`
}

type Experience struct {
	ID               ID     `json:"id"`
	CompanyName      string `json:"companyName"`
	JobTitle         string `json:"jobTitle"`
	StartDate        string `json:"startDate"`
	EndDate          string `json:"endDate"`
	Responsibilities string `json:"responsibilities"`
}

// EmployeeRecord is the read shape of one employee with nested collections.
type EmployeeRecord struct {
	Employee    Employee     `json:"employee"`
	Documents   []Document   `json:"documents"`
	Experiences []Experience `json:"experiences"`
}

type WriteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	ID      ID     `json:"id,omitempty"`
}

type uniqueCheckRequest struct {
	Field     string `json:"field"`
	Value     string `json:"value"`
	ExcludeID string `json:"excludeId,omitempty"`
}

type uniqueCheckResponse struct {
	Success *bool `json:"success"`
}

type documentDeleteRequest struct {
	EmployeeID string `json:"employeeId"`
	DocumentID string `json:"documentId,omitempty"`
}
