package seo

import (
	"strconv"
	"strings"
	"time"

	"github.com/santiagomed/pagegen/content"
	"github.com/santiagomed/pagegen/placeholder"
)

// Generate resolves every template of m against ctx and normalizes the title
// and description lengths. The context is augmented with business_location,
// taken from address, and current_year, taken from now.
func Generate(m Mapping, ctx content.Context, address string, now time.Time) Fields {
	full := ctx.With(map[string]string{
		"business_location": content.Profile{Address: address}.Location(),
		"current_year":      strconv.Itoa(now.Year()),
	})

	out := make(Fields, m.Len())
	m.Each(func(field, template string) {
		out[field] = strings.TrimSpace(placeholder.Resolve(template, full))
	})

	if title, ok := out[FieldMetaTitle]; ok {
		out[FieldMetaTitle] = TruncateTitle(title, TitleMaxLength)
	}
	if desc, ok := out[FieldMetaDescription]; ok {
		out[FieldMetaDescription] = TruncateDescription(desc, DescriptionMaxLength)
	}
	return out
}

// Complete returns a copy of f with Open Graph fields filled from the meta
// fields where missing.
func Complete(f Fields) Fields {
	out := make(Fields, len(f)+4)
	for k, v := range f {
		out[k] = v
	}
	if out[FieldOGTitle] == "" {
		out[FieldOGTitle] = out[FieldMetaTitle]
	}
	if out[FieldOGDescription] == "" {
		out[FieldOGDescription] = out[FieldMetaDescription]
	}
	if _, ok := out[FieldOGImage]; !ok {
		out[FieldOGImage] = ""
	}
	out[FieldOGType] = "website"
	return out
}
