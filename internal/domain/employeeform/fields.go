package employeeform

import (
	"strconv"
	"strings"

	"hrconsole/internal/domain/dupcheck"
)

type section int

const (
	sectionPersonal section = iota
	sectionEmployment
)

type textField struct {
	section section
	ref     func(*Draft) *string
}

// textFields maps wire names of scalar text fields onto the draft.
var textFields = map[string]textField{
	"first_name":             {sectionPersonal, func(d *Draft) *string { return &d.Personal.FirstName }},
	"middle_name":            {sectionPersonal, func(d *Draft) *string { return &d.Personal.MiddleName }},
	"last_name":              {sectionPersonal, func(d *Draft) *string { return &d.Personal.LastName }},
	"date_of_birth":          {sectionPersonal, func(d *Draft) *string { return &d.Personal.DateOfBirth }},
	"gender":                 {sectionPersonal, func(d *Draft) *string { return &d.Personal.Gender }},
	"personal_email":         {sectionPersonal, func(d *Draft) *string { return &d.Personal.PersonalEmail }},
	"phone":                  {sectionPersonal, func(d *Draft) *string { return &d.Personal.Phone }},
	"alternate_phone":        {sectionPersonal, func(d *Draft) *string { return &d.Personal.AlternatePhone }},
	"emergency_contact_name": {sectionPersonal, func(d *Draft) *string { return &d.Personal.EmergencyContactName }},
	"emergency_phone":        {sectionPersonal, func(d *Draft) *string { return &d.Personal.EmergencyPhone }},
	"emergency_email":        {sectionPersonal, func(d *Draft) *string { return &d.Personal.EmergencyEmail }},
	"address":                {sectionPersonal, func(d *Draft) *string { return &d.Personal.Address }},
	"postal_code":            {sectionPersonal, func(d *Draft) *string { return &d.Personal.PostalCode }},
	"employee_code":          {sectionEmployment, func(d *Draft) *string { return &d.Employment.EmployeeCode }},
	"company_email":          {sectionEmployment, func(d *Draft) *string { return &d.Employment.CompanyEmail }},
	"joining_date":           {sectionEmployment, func(d *Draft) *string { return &d.Employment.JoiningDate }},
	"confirmation_date":      {sectionEmployment, func(d *Draft) *string { return &d.Employment.ConfirmationDate }},
	"bank_name":              {sectionEmployment, func(d *Draft) *string { return &d.Employment.BankName }},
	"bank_account_number":    {sectionEmployment, func(d *Draft) *string { return &d.Employment.BankAccountNumber }},
	"ifsc_code":              {sectionEmployment, func(d *Draft) *string { return &d.Employment.IFSCCode }},
}

// SetField applies one scalar edit and returns the value the draft now holds.
// Unique fields are normalised and queued for a duplicate check.
func (f *Form) SetField(field, value string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkOpen(); err != nil {
		return "", err
	}

	if field == "is_active" {
		active, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return "", ErrInvalidValue
		}
		f.draft.Employment.IsActive = active
		return strconv.FormatBool(active), nil
	}

	tf, ok := textFields[field]
	if !ok {
		return "", ErrUnknownField
	}
	switch field {
	case "gender":
		value = strings.ToLower(strings.TrimSpace(value))
	case "ifsc_code":
		value = strings.ToUpper(strings.TrimSpace(value))
	}
	if dupcheck.IsUnique(field) {
		value = f.validatorFor(dupcheck.Field(field)).Observe(dupcheck.Field(field), value)
	}
	*tf.ref(f.draft) = value
	return value, nil
}

func (f *Form) validatorFor(field dupcheck.Field) *dupcheck.Validator {
	if tf, ok := textFields[string(field)]; ok && tf.section == sectionEmployment {
		return f.employment
	}
	return f.personal
}

func uniqueValues(d *Draft) map[dupcheck.Field]string {
	out := map[dupcheck.Field]string{}
	for field := range dupcheck.Rules {
		if tf, ok := textFields[string(field)]; ok {
			out[field] = *tf.ref(d)
		}
	}
	return out
}
