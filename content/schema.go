package content

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/santiagomed/pagegen/errs"
	"github.com/xeipuuv/gojsonschema"
)

var (
	profileSchemaOnce sync.Once
	profileSchema     *gojsonschema.Schema
	profileSchemaErr  error
)

// ProfileSchema reflects the JSON schema of Profile.
func ProfileSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:                  true,
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&Profile{})
	s.Version = "http://json-schema.org/draft-07/schema#"

	// Optional fields and social links may be null; they decode to "".
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		if slices.Contains(s.Required, pair.Key) {
			continue
		}
		if pair.Value.AdditionalProperties != nil {
			pair.Value.AdditionalProperties = nullable(pair.Value.AdditionalProperties)
		}
		pair.Value = nullable(pair.Value)
	}
	return s
}

func nullable(s *jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
}

func compiledProfileSchema() (*gojsonschema.Schema, error) {
	profileSchemaOnce.Do(func() {
		raw, err := json.Marshal(ProfileSchema())
		if err != nil {
			profileSchemaErr = err
			return
		}
		profileSchema, profileSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	})
	return profileSchema, profileSchemaErr
}

// DecodeProfile validates raw profile JSON against the profile schema and
// decodes it.
func DecodeProfile(data []byte) (Profile, error) {
	s, err := compiledProfileSchema()
	if err != nil {
		return Profile{}, err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Profile{}, invalidProfile(err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return Profile{}, invalidProfile(errors.New(strings.Join(msgs, "; ")))
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, invalidProfile(err)
	}
	return p, p.Validate()
}

func invalidProfile(err error) error {
	return errs.Validation(errs.CodeProfileValidationFailed, "Business data is invalid.", err)
}
