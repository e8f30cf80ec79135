package customerauth

import (
	"regexp"
	"sort"
	"strings"

	"github.com/txn2/realty-crm/pkg/actor"
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ValidationError lists the fields that failed validation, with a message
// per field. Nothing is sent to the backend when it is returned.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

func validatePhone(phone string, fields map[string]string) {
	switch {
	case phone == "":
		fields["phone"] = "Phone number is required"
	case !phonePattern.MatchString(phone):
		fields["phone"] = "Phone number must be exactly 10 digits"
	}
}

// ValidatePhone checks a login phone number.
func ValidatePhone(phone string) error {
	fields := map[string]string{}
	validatePhone(strings.TrimSpace(phone), fields)
	return result(fields)
}

// ValidateProfile checks a registration form.
func ValidateProfile(p actor.CustomerProfile) error {
	fields := map[string]string{}
	if strings.TrimSpace(p.Name) == "" {
		fields["name"] = "Name is required"
	}
	validatePhone(strings.TrimSpace(p.PhoneNumber), fields)
	if p.Email != nil {
		if email := strings.TrimSpace(*p.Email); email != "" && !emailPattern.MatchString(email) {
			fields["email"] = "Invalid email format"
		}
	}
	return result(fields)
}

func result(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
