package seo

import (
	"encoding/json"

	"github.com/santiagomed/pagegen/content"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var schemaTypes = map[string]string{
	"restaurant":   "Restaurant",
	"retail_store": "Store",
	"healthcare":   "MedicalOrganization",
	"law_firm":     "LegalService",
	"real_estate":  "RealEstateAgent",
	"automotive":   "AutomotiveBusiness",
	"beauty":       "BeautySalon",
	"fitness":      "SportsActivityLocation",
	"education":    "EducationalOrganization",
	"financial":    "FinancialService",
	"construction": "GeneralContractor",
	"travel":       "TravelAgency",
}

// SchemaType maps a business type to its schema.org type.
func SchemaType(businessType string) string {
	if t, ok := schemaTypes[businessType]; ok {
		return t
	}
	return "LocalBusiness"
}

// SchemaMarkup builds the schema.org JSON-LD document for a business page.
func SchemaMarkup(p content.Profile, pageURL string) ([]byte, error) {
	doc := orderedmap.New[string, any]()
	doc.Set("@context", "https://schema.org")
	doc.Set("@type", SchemaType(p.BusinessType))
	doc.Set("name", p.BusinessName)
	doc.Set("description", p.Description)
	doc.Set("url", pageURL)

	if p.LogoURL != "" {
		doc.Set("logo", p.LogoURL)
		doc.Set("image", p.LogoURL)
	}

	if p.Phone != "" || p.Email != "" {
		contact := orderedmap.New[string, any]()
		contact.Set("@type", "ContactPoint")
		if p.Phone != "" {
			contact.Set("telephone", p.Phone)
		}
		if p.Email != "" {
			contact.Set("email", p.Email)
		}
		doc.Set("contactPoint", contact)
	}

	if p.Address != "" {
		address := orderedmap.New[string, any]()
		address.Set("@type", "PostalAddress")
		address.Set("streetAddress", p.Address)
		doc.Set("address", address)
	}

	if links := p.SocialLinks(); len(links) > 0 {
		doc.Set("sameAs", links)
	}
	return json.Marshal(doc)
}
