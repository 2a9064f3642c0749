package streaming

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidEnvelope is returned for inbound data that does not match the envelope schema.
var ErrInvalidEnvelope = errors.New("invalid envelope")

const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "action", "payload"],
  "properties": {
    "id": {"type": "string", "format": "envelope_id"},
    "action": {"type": "string", "minLength": 1},
    "payload": {"type": "object"},
    "sentAt": {"type": "string", "format": "date-time"}
  },
  "if": {"properties": {"action": {"const": "overwatchAlert"}}},
  "then": {
    "properties": {
      "payload": {
        "type": "object",
        "required": ["reactorIds", "targetId", "userId"],
        "properties": {
          "reactorIds": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "targetId": {"type": "string", "minLength": 1},
          "userId": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// envelopeIDFormatChecker accepts UUID envelope IDs.
type envelopeIDFormatChecker struct{}

func (envelopeIDFormatChecker) IsFormat(input interface{}) bool {
	s, ok := input.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		gojsonschema.FormatCheckers.Add("envelope_id", envelopeIDFormatChecker{})
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	})
	return schema, schemaErr
}

// Validate checks raw inbound data against the envelope schema.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile envelope schema: %w", err)
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidEnvelope, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode validates data and unmarshals it into an Envelope.
func Decode(data []byte) (Envelope, error) {
	if err := Validate(data); err != nil {
		return Envelope{}, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, nil
}
