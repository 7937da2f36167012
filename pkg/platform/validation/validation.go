// Package validation runs declarative struct rules (go-playground/validator
// tags) and turns violations into itemized domain field errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "agencyhub/pkg/domain-errors"
)

// FailedMessage is the top-level message for any rule violation.
const FailedMessage = "Validation failed"

var (
	validate   *validator.Validate
	indexParts = regexp.MustCompile(`\[\d+\]`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("mobile", validateMobile)
}

// Messages maps a field path such as "agency.name" or "clients.*.email" to
// the message reported when any rule on that field fails.
type Messages map[string]string

// Struct validates v. It returns nil, or a CodeValidation error whose fields
// list every violation in declaration order.
func Struct(v any, messages Messages) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	fields := make([]dErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		msg, ok := messages[indexParts.ReplaceAllString(path, ".*")]
		if !ok {
			msg = fmt.Sprintf("%s failed rule %s", path, fe.Tag())
		}
		fields = append(fields, dErrors.FieldError{Field: path, Rule: fe.Tag(), Message: msg})
	}
	return dErrors.NewValidation(FailedMessage, fields)
}

// Field builds a single-violation validation error for checks that live
// outside struct tags.
func Field(field, rule, message string) error {
	return dErrors.NewValidation(FailedMessage, []dErrors.FieldError{{Field: field, Rule: rule, Message: message}})
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// validateMobile accepts 7 to 15 digits with an optional leading '+' and
// single spaces, dashes or dots between digit groups.
func validateMobile(fl validator.FieldLevel) bool {
	return IsMobilePhone(fl.Field().String())
}

func IsMobilePhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	digits := 0
	prevSep := true
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
			prevSep = false
		case r == ' ' || r == '-' || r == '.':
			if prevSep {
				return false
			}
			prevSep = true
		default:
			return false
		}
	}
	return !prevSep && digits >= 7 && digits <= 15
}
