package composer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"culturecompass/internal/route"
)

type Code string

const (
	CodeAuthRequired  Code = "auth_required"
	CodeMissingFields Code = "missing_fields"
	CodeInvalidLink   Code = "invalid_link"
	CodeInvalidField  Code = "invalid_field"
)

const (
	authMessage     = "Please sign in to share or create routes."
	requiredMessage = "Route name and description are required."
)

var linkMessage = fmt.Sprintf("Please provide a valid Google Maps link starting with '%s'.", route.MapsLinkPrefix)

// Failure is the single blocking message for a rejected submission.
type Failure struct {
	Code    Code   `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (f *Failure) Error() string { return f.Message }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks authentication, then required fields, then the link, and
// returns the first failure.
func (f *Form) Validate(signedIn bool) error {
	if !signedIn {
		return &Failure{Code: CodeAuthRequired, Message: authMessage}
	}
	d := f.draft
	if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" {
		field := "title"
		if strings.TrimSpace(d.Title) != "" {
			field = "description"
		}
		return &Failure{Code: CodeMissingFields, Field: field, Message: requiredMessage}
	}
	if f.ShareLike() && !route.ValidMapsLink(d.Link) {
		return &Failure{Code: CodeInvalidLink, Field: "googleMapsLink", Message: linkMessage}
	}

	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &Failure{
				Code:    CodeInvalidField,
				Field:   fe.Field(),
				Message: fmt.Sprintf("%s must be at most %s characters.", fe.Field(), fe.Param()),
			}
		}
		return err
	}
	return nil
}
