// Package seo fills SEO templates and normalizes the resulting fields.
package seo

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	FieldMetaTitle       = "meta_title"
	FieldMetaDescription = "meta_description"
	FieldKeywords        = "keywords"
	FieldOGTitle         = "og_title"
	FieldOGDescription   = "og_description"
	FieldOGImage         = "og_image"
	FieldOGType          = "og_type"
)

const (
	TitleMaxLength       = 60
	DescriptionMaxLength = 160
)

// Mapping is an ordered set of SEO field templates.
type Mapping struct {
	fields *orderedmap.OrderedMap[string, string]
}

// NewMapping builds a mapping from alternating field/template pairs.
func NewMapping(pairs ...string) Mapping {
	m := Mapping{fields: orderedmap.New[string, string]()}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.fields.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set stores a template for field.
func (m *Mapping) Set(field, template string) {
	if m.fields == nil {
		m.fields = orderedmap.New[string, string]()
	}
	m.fields.Set(field, template)
}

// Get returns the template stored for field.
func (m Mapping) Get(field string) (string, bool) {
	if m.fields == nil {
		return "", false
	}
	return m.fields.Get(field)
}

// Len is the number of templates.
func (m Mapping) Len() int {
	if m.fields == nil {
		return 0
	}
	return m.fields.Len()
}

// Each visits the templates in order.
func (m Mapping) Each(fn func(field, template string)) {
	if m.fields == nil {
		return
	}
	for pair := m.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (m Mapping) MarshalJSON() ([]byte, error) {
	if m.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.fields)
}

func (m *Mapping) UnmarshalJSON(data []byte) error {
	fields := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, fields); err != nil {
		return err
	}
	m.fields = fields
	return nil
}

// Fields are the finalized SEO values of a page.
type Fields map[string]string

// Title is the meta title.
func (f Fields) Title() string { return f[FieldMetaTitle] }

// Description is the meta description.
func (f Fields) Description() string { return f[FieldMetaDescription] }
