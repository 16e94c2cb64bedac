// Package content builds the flat placeholder context a template is filled from.
package content

import (
	"sort"
	"strings"

	"github.com/santiagomed/pagegen/errs"
)

// Profile holds the business details collected from the operator.
type Profile struct {
	UserID         int64             `json:"user_id,omitempty" mapstructure:"user_id"`
	BusinessName   string            `json:"business_name" mapstructure:"business_name" jsonschema:"required,minLength=1,maxLength=255"`
	BusinessType   string            `json:"business_type,omitempty" mapstructure:"business_type" jsonschema:"maxLength=100"`
	Description    string            `json:"description,omitempty" mapstructure:"description"`
	Tagline        string            `json:"tagline,omitempty" mapstructure:"tagline" jsonschema:"maxLength=500"`
	LogoURL        string            `json:"logo_url,omitempty" mapstructure:"logo_url" jsonschema:"maxLength=500"`
	PrimaryColor   string            `json:"primary_color,omitempty" mapstructure:"primary_color" jsonschema:"pattern=^(#[0-9a-fA-F]+)?$"`
	SecondaryColor string            `json:"secondary_color,omitempty" mapstructure:"secondary_color" jsonschema:"pattern=^(#[0-9a-fA-F]+)?$"`
	WebsiteURL     string            `json:"website_url,omitempty" mapstructure:"website_url" jsonschema:"maxLength=500"`
	Phone          string            `json:"phone,omitempty" mapstructure:"phone" jsonschema:"maxLength=50"`
	Email          string            `json:"email,omitempty" mapstructure:"email" jsonschema:"maxLength=255"`
	Address        string            `json:"address,omitempty" mapstructure:"address"`
	SocialMedia    map[string]string `json:"social_media,omitempty" mapstructure:"social_media"`
}

// Fields returns every profile field keyed by its placeholder name. Optional
// fields that were not supplied map to "".
func (p Profile) Fields() map[string]string {
	return map[string]string{
		"business_name":   p.BusinessName,
		"business_type":   p.BusinessType,
		"description":     p.Description,
		"tagline":         p.Tagline,
		"logo_url":        p.LogoURL,
		"primary_color":   p.PrimaryColor,
		"secondary_color": p.SecondaryColor,
		"website_url":     p.WebsiteURL,
		"phone":           p.Phone,
		"email":           p.Email,
		"address":         p.Address,
	}
}

// Validate reports a missing business name.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.BusinessName) == "" {
		return errs.Validation(errs.CodeProfileValidationFailed, "Business name is required.", nil)
	}
	return nil
}

// Location is the last comma-separated segment of the address, trimmed. An
// address without commas is returned whole.
func (p Profile) Location() string {
	parts := strings.Split(p.Address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// SocialLinks returns the non-empty social URLs ordered by platform name.
func (p Profile) SocialLinks() []string {
	platforms := make([]string, 0, len(p.SocialMedia))
	for platform := range p.SocialMedia {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)

	var links []string
	for _, platform := range platforms {
		if url := p.SocialMedia[platform]; url != "" {
			links = append(links, url)
		}
	}
	return links
}
