package employeeform

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Issues maps a field path to the first problem found with it.
type Issues map[string]string

func (i Issues) add(field, reason string) {
	if _, exists := i[field]; !exists {
		i[field] = reason
	}
}

func (i Issues) collect(prefix string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if err != nil {
			i.add(strings.TrimSuffix(prefix, "."), "is invalid")
		}
		return
	}
	for _, fe := range verrs {
		i.add(prefix+fe.Field(), reason(fe))
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "datetime":
		return "must be a valid date in YYYY-MM-DD format"
	case "numeric":
		return "must contain digits only"
	case "alphanum":
		return "must contain letters and digits only"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is invalid"
}

// dateOrder flags end when it falls before start. Unparseable dates are left to
// the format check.
func (i Issues) dateOrder(startField, start, endField, end string) {
	s, err1 := time.Parse(time.DateOnly, strings.TrimSpace(start))
	e, err2 := time.Parse(time.DateOnly, strings.TrimSpace(end))
	if err1 != nil || err2 != nil {
		return
	}
	if e.Before(s) {
		i.add(endField, "must be on or after "+startField)
	}
}

func documentPath(key, field string) string {
	return fmt.Sprintf("documents[%s].%s", key, field)
}

func experiencePath(key, field string) string {
	return fmt.Sprintf("experiences[%s].%s", key, field)
}

// ValidateDraft applies the field constraints, the experience required-complete
// rule and date ordering.
func ValidateDraft(d *Draft) Issues {
	issues := Issues{}
	issues.collect("", validate.Struct(d.Personal))
	issues.collect("", validate.Struct(d.Employment))

	if d.Employment.Org.DepartmentID == "" {
		issues.add("department_id", "is required")
	}
	loc := d.Personal.Location
	if loc.Country.IsManual() && (!loc.State.IsManual() && loc.State.ID != "" || !loc.City.IsManual() && loc.City.ID != "") {
		issues.add("state", "must be entered manually when the country is")
	}
	issues.dateOrder("joining_date", d.Employment.JoiningDate, "confirmation_date", d.Employment.ConfirmationDate)
	issues.dateOrder("date_of_birth", d.Personal.DateOfBirth, "joining_date", d.Employment.JoiningDate)

	for _, entry := range d.Documents.Entries() {
		doc := entry.Item
		issues.collect(documentPath(entry.Key, ""), validate.Struct(doc))
		issues.dateOrder(documentPath(entry.Key, "issue_date"), doc.IssueDate, documentPath(entry.Key, "expiry_date"), doc.ExpiryDate)
	}

	for _, entry := range d.Experiences.Entries() {
		exp := entry.Item
		if entry.IsNew() && exp.IsBlank() {
			continue
		}
		issues.collect(experiencePath(entry.Key, ""), validate.Struct(exp))
		issues.dateOrder(experiencePath(entry.Key, "start_date"), exp.StartDate, experiencePath(entry.Key, "end_date"), exp.EndDate)
	}
	return issues
}
