package dupcheck

import (
	"strings"
	"unicode"
)

type Field string

const (
	FieldEmployeeCode      Field = "employee_code"
	FieldPersonalEmail     Field = "personal_email"
	FieldCompanyEmail      Field = "company_email"
	FieldEmergencyEmail    Field = "emergency_email"
	FieldPhone             Field = "phone"
	FieldAlternatePhone    Field = "alternate_phone"
	FieldEmergencyPhone    Field = "emergency_phone"
	FieldBankAccountNumber Field = "bank_account_number"
)

// Rule describes when a field is worth a uniqueness round trip. A check fires
// only when the trimmed value is longer than MinLength.
type Rule struct {
	Label      string
	MinLength  int
	DigitsOnly bool
}

var Rules = map[Field]Rule{
	FieldEmployeeCode:      {Label: "Employee code", MinLength: 2},
	FieldPersonalEmail:     {Label: "Personal email", MinLength: 3},
	FieldCompanyEmail:      {Label: "Official email", MinLength: 3},
	FieldEmergencyEmail:    {Label: "Emergency email", MinLength: 3},
	FieldPhone:             {Label: "Phone number", MinLength: 5, DigitsOnly: true},
	FieldAlternatePhone:    {Label: "Alternate phone number", MinLength: 5, DigitsOnly: true},
	FieldEmergencyPhone:    {Label: "Emergency phone number", MinLength: 5, DigitsOnly: true},
	FieldBankAccountNumber: {Label: "Account number", MinLength: 5, DigitsOnly: true},
}

func IsUnique(field string) bool {
	_, ok := Rules[Field(field)]
	return ok
}

// Normalize strips non-digits from numeric fields; other values pass through.
func Normalize(field Field, raw string) string {
	rule, ok := Rules[field]
	if !ok || !rule.DigitsOnly {
		return raw
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
}

func (r Rule) Eligible(value string) bool {
	return len([]rune(strings.TrimSpace(value))) > r.MinLength
}

func (r Rule) DuplicateMessage() string {
	return r.Label + " already exists"
}
