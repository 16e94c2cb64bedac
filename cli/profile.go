package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/santiagomed/pagegen/content"
)

func addProfileFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("profile", "", "Path to a business profile JSON file")
	f.StringP("name", "n", "", "Business name")
	f.String("type", "", "Business type, e.g. restaurant or law firm")
	f.String("description", "", "Business description")
	f.String("tagline", "", "Business tagline")
	f.String("logo", "", "Logo URL, also used as the featured image")
	f.String("website", "", "Website URL")
	f.String("phone", "", "Phone number")
	f.String("email", "", "Contact email")
	f.String("address", "", "Street address; the last comma segment is the location")
	f.String("primary-color", "", "Primary brand color, e.g. #667eea")
	f.String("secondary-color", "", "Secondary brand color")
	f.StringToString("social", nil, "Social links, e.g. facebook=https://facebook.com/acme")
	f.Int64("user", 0, "Owning user ID for page history")
}

// parseProfile reads the --profile file, if any, and lets the individual
// flags override its fields. The business name is not required here; the
// generate command asks for it when missing.
func parseProfile(cmd *cobra.Command) (content.Profile, error) {
	var p content.Profile
	f := cmd.Flags()

	path, err := f.GetString("profile")
	if err != nil {
		return p, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return p, err
		}
		if p, err = content.DecodeProfile(data); err != nil {
			return p, err
		}
	}

	fields := map[string]*string{
		"name":            &p.BusinessName,
		"type":            &p.BusinessType,
		"description":     &p.Description,
		"tagline":         &p.Tagline,
		"logo":            &p.LogoURL,
		"website":         &p.WebsiteURL,
		"phone":           &p.Phone,
		"email":           &p.Email,
		"address":         &p.Address,
		"primary-color":   &p.PrimaryColor,
		"secondary-color": &p.SecondaryColor,
	}
	for name, dst := range fields {
		if !f.Changed(name) {
			continue
		}
		if *dst, err = f.GetString(name); err != nil {
			return p, err
		}
	}

	if f.Changed("social") {
		social, err := f.GetStringToString("social")
		if err != nil {
			return p, err
		}
		if p.SocialMedia == nil {
			p.SocialMedia = make(map[string]string, len(social))
		}
		for k, v := range social {
			p.SocialMedia[k] = v
		}
	}
	if f.Changed("user") {
		if p.UserID, err = f.GetInt64("user"); err != nil {
			return p, err
		}
	}
	return p, nil
}
