package wizard

// RegistrationSteps is the vendor sign-up flow.
func RegistrationSteps() []Step {
	return []Step{
		{
			Title: "Account",
			Fields: []Field{
				{Name: "username", Label: "Username", Kind: KindText, Required: true},
				{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
				{Name: "password", Label: "Password", Kind: KindText, Required: true},
				{Name: "confirm_password", Label: "Confirm password", Kind: KindText, Required: true, Matches: "password"},
				{Name: "first_name", Label: "First name", Kind: KindText, Required: true},
				{Name: "last_name", Label: "Last name", Kind: KindText},
				{Name: "phone_number", Label: "Phone number", Kind: KindPhone, Required: true},
			},
		},
		{
			Title: "Business",
			Fields: []Field{
				{Name: "business_name", Label: "Business name", Kind: KindText, Required: true},
				{Name: "business_type", Label: "Business type", Kind: KindText, Required: true},
				{Name: "business_address", Label: "Business address", Kind: KindText, Required: true},
				{Name: "business_phone", Label: "Business phone", Kind: KindPhone},
				{Name: "business_email", Label: "Business email", Kind: KindEmail},
			},
		},
		{
			Title: "Materials",
			Fields: []Field{
				{Name: "material_categories", Label: "Material categories", Kind: KindCategories},
			},
		},
		{
			Title: "Terms",
			Fields: []Field{
				{Name: "terms", Label: "Terms and conditions", Kind: KindTerms},
			},
		},
	}
}
