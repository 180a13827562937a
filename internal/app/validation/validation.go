package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/streamhive/user-service/internal/domain/user/apperr"
)

// Normalizer lets a DTO trim and case-fold its fields before the schema
// runs, so stored and compared values are always canonical.
type Normalizer interface {
	Normalize()
}

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9_-]+$`)
	fullNameRe = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
)

// Domains that hand out throwaway inboxes; registration rejects them.
var disposableDomains = map[string]bool{
	"tempmail.com":      true,
	"10minutemail.com":  true,
	"guerrillamail.com": true,
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Error fields are reported under their wire names, not Go names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("fullname", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return fullNameRe.MatchString(name) && len(strings.Fields(name)) >= 1
	})

	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		pwd := fl.Field().String()
		if len(pwd) < 8 || len(pwd) > 128 {
			return false
		}
		var hasLower, hasUpper, hasDigit, hasSpecial bool
		for _, r := range pwd {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			case strings.ContainsRune("@$!%*?&", r):
				hasSpecial = true
			}
		}
		return hasLower && hasUpper && hasDigit && hasSpecial
	})

	_ = v.RegisterValidation("permanent", func(fl validator.FieldLevel) bool {
		email := fl.Field().String()
		at := strings.LastIndex(email, "@")
		if at < 0 {
			return true // leave format complaints to the email validator
		}
		return !disposableDomains[email[at+1:]]
	})

	_ = v.RegisterValidation("mediaurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})

	return &Validator{v: v}
}

// Validate normalizes dst in place and checks it against its schema tags.
// All violations are collected and grouped per field; the returned error
// is a single apperr Validation error, never just the first failure.
func (va *Validator) Validate(dst any) error {
	if n, ok := dst.(Normalizer); ok {
		n.Normalize()
	}

	err := va.v.Struct(dst)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Wrap(apperr.Internal, "validation", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], messageFor(fe))
	}
	return apperr.NewValidation(fields)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return "username or email is required"
	case "email":
		return "invalid email format"
	case "permanent":
		return "disposable email addresses are not allowed"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
	case "username":
		return "username can only contain lowercase letters, numbers, hyphens, and underscores"
	case "fullname":
		return "full name can only contain letters, spaces, hyphens, and apostrophes"
	case "strongpwd":
		return "password must be 8-128 characters and contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	case "mediaurl":
		return "invalid URL format"
	case "nefield":
		return "new password must be different from current password"
	case "eqfield":
		return "passwords do not match"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
