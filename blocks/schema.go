package blocks

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const treeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "block": {
      "type": "object",
      "required": ["blockName"],
      "properties": {
        "blockName": {"type": "string", "minLength": 1},
        "attrs": {"type": ["object", "array", "null"]},
        "innerBlocks": {
          "type": ["array", "null"],
          "items": {"$ref": "#/definitions/block"}
        }
      }
    }
  },
  "oneOf": [
    {"$ref": "#/definitions/block"},
    {"type": "array", "items": {"$ref": "#/definitions/block"}}
  ]
}`

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(treeSchema))
	})
	return schema, schemaErr
}

// ValidateTree checks raw block-tree JSON against the block schema.
func ValidateTree(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile block schema: %w", err)
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return invalidTree(err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return invalidTree(errors.New(strings.Join(msgs, "; ")))
	}
	return nil
}
