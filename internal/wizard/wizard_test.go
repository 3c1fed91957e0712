package wizard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validAccount() Values {
	return Values{
		"username":         "ravi",
		"email":            "ravi@example.com",
		"password":         "s3cret!",
		"confirm_password": "s3cret!",
		"first_name":       "Ravi",
		"phone_number":     "(987) 654-3210",
	}
}

func TestAccountStepMessages(t *testing.T) {
	steps := RegistrationSteps()

	res := ValidateStep(steps[0], Values{"username": "   ", "email": "not-an-email", "phone_number": "12345"})
	require.False(t, res.Valid())
	require.Equal(t, MsgRequired, res.Errors["username"])
	require.Equal(t, MsgEmail, res.Errors["email"])
	require.Equal(t, MsgPhone, res.Errors["phone_number"])
	require.Equal(t, MsgRequired, res.Errors["password"])
	require.NotContains(t, res.Errors, "last_name")

	values := validAccount()
	values["confirm_password"] = "other"
	res = ValidateStep(steps[0], values)
	require.Equal(t, map[string]string{"confirm_password": MsgMismatch}, res.Errors)

	require.True(t, ValidateStep(steps[0], validAccount()).Valid())
}

func TestOptionalFieldsValidateWhenFilled(t *testing.T) {
	steps := RegistrationSteps()
	values := Values{
		"business_name":    "Chaat Corner",
		"business_type":    "street_food",
		"business_address": "MG Road",
	}
	require.True(t, ValidateStep(steps[1], values).Valid())

	values["business_email"] = "bad@"
	values["business_phone"] = "98765 4321 0"
	res := ValidateStep(steps[1], values)
	require.Equal(t, map[string]string{"business_email": MsgEmail}, res.Errors)
}

func TestCategoryAndTermsSteps(t *testing.T) {
	steps := RegistrationSteps()

	res := ValidateStep(steps[2], Values{"material_categories": []string{" "}})
	require.Equal(t, MsgCategories, res.Errors["material_categories"])
	require.True(t, ValidateStep(steps[2], Values{"material_categories": []string{"vegetables"}}).Valid())

	require.Equal(t, MsgTerms, ValidateStep(steps[3], Values{}).Errors["terms"])
	require.True(t, ValidateStep(steps[3], Values{"terms": "on"}).Valid())
	require.True(t, ValidateStep(steps[3], Values{"terms": true}).Valid())
}

func TestWizardMovesLinearly(t *testing.T) {
	w, err := New(RegistrationSteps())
	require.NoError(t, err)
	require.Equal(t, Progress{Step: 1, Total: 4, Percent: 0}, w.Progress())

	require.True(t, w.Prev())
	require.Equal(t, 0, w.Current())

	res, ok := w.Next(Values{})
	require.False(t, ok)
	require.False(t, res.Valid())
	require.Equal(t, 0, w.Current())

	_, ok = w.Next(validAccount())
	require.True(t, ok)
	require.Equal(t, 1, w.Current())
	require.Equal(t, "Business", w.Step().Title)
	require.Equal(t, 33, w.Progress().Percent)

	_, ok = w.Next(Values{"business_name": "A", "business_type": "B", "business_address": "C"})
	require.True(t, ok)
	_, ok = w.Next(Values{"material_categories": []string{"spices", "oil"}})
	require.True(t, ok)
	require.Equal(t, 100, w.Progress().Percent)
	require.False(t, w.Complete())

	_, ok = w.Next(Values{"terms": false})
	require.False(t, ok)
	_, ok = w.Next(Values{"terms": true})
	require.True(t, ok)
	require.True(t, w.Complete())
	require.Equal(t, 3, w.Current())

	require.True(t, w.Prev())
	require.False(t, w.Complete())
	require.Equal(t, 2, w.Current())
}

func TestNewRejectsEmptySteps(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestIsPhone10(t *testing.T) {
	require.True(t, IsPhone10("9876543210"))
	require.True(t, IsPhone10("(987) 654-3210"))
	require.False(t, IsPhone10("+91 9876543210"))
	require.False(t, IsPhone10("98765"))
}

func TestIsEmailShape(t *testing.T) {
	require.True(t, IsEmailShape("ravi@example.com"))
	require.True(t, IsEmailShape("x@y..z"))
	require.True(t, IsEmailShape(`"q"@ex.com`))
	require.False(t, IsEmailShape("ravi@example"))
	require.False(t, IsEmailShape("ravi @example.com"))
	require.False(t, IsEmailShape("ra@vi@example.com"))

	values := validAccount()
	values["email"] = "x@y..z"
	res := ValidateStep(RegistrationSteps()[0], values)
	require.Empty(t, res.Errors)
}
