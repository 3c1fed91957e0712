package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MsgRequired   = "This field is required"
	MsgEmail      = "Please enter a valid email address"
	MsgPhone      = "Please enter a valid phone number"
	MsgCategories = "Please select at least one category"
	MsgTerms      = "You must accept the terms and conditions"
	MsgMismatch   = "Passwords do not match"
)

var (
	phoneNoise  = regexp.MustCompile(`[\s()-]`)
	phoneDigits = regexp.MustCompile(`^[0-9]{10}$`)
	emailShape  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	validate = newValidator()
)

var tagMessages = map[string]string{
	"required":    MsgRequired,
	"email_shape": MsgEmail,
	"phone10":     MsgPhone,
	"min":         MsgCategories,
	"accepted":    MsgTerms,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("email_shape", isEmailShape); err != nil {
		panic(fmt.Sprintf("register email_shape: %v", err))
	}
	if err := v.RegisterValidation("phone10", isPhone10); err != nil {
		panic(fmt.Sprintf("register phone10: %v", err))
	}
	if err := v.RegisterValidation("accepted", isAccepted); err != nil {
		panic(fmt.Sprintf("register accepted: %v", err))
	}
	return v
}

// IsPhone10 reports whether value holds exactly ten digits once spaces,
// parentheses and dashes are removed.
func IsPhone10(value string) bool {
	return phoneDigits.MatchString(phoneNoise.ReplaceAllString(value, ""))
}

// IsEmailShape reports whether value looks like local@domain.tld with no
// whitespace and exactly one @.
func IsEmailShape(value string) bool {
	return emailShape.MatchString(value)
}

func isEmailShape(fl validator.FieldLevel) bool {
	return IsEmailShape(fl.Field().String())
}

func isPhone10(fl validator.FieldLevel) bool {
	return IsPhone10(fl.Field().String())
}

func isAccepted(fl validator.FieldLevel) bool {
	return fl.Field().Bool()
}

// Validator exposes the shared instance with the custom tags registered.
func Validator() *validator.Validate {
	return validate
}

// messageFor maps the first failed tag to the vendor-facing message.
func messageFor(err error) string {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		if msg, ok := tagMessages[verrs[0].Tag()]; ok {
			return msg
		}
	}
	return MsgRequired
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	}
	return ""
}

func asStrings(v any) []string {
	var raw []string
	switch t := v.(type) {
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			raw = append(raw, asString(item))
		}
	case string:
		raw = []string{t}
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "on", "true", "1", "yes":
			return true
		}
	case []string:
		return len(t) > 0 && asBool(t[0])
	}
	return false
}
