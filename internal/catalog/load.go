package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	ferrors "git.home.luguber.info/inful/sitegen/internal/errors"
	"git.home.luguber.info/inful/sitegen/internal/textenc"
)

//go:embed schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// FieldError is a single structural problem in the catalog document.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError lists every structural problem found in a catalog document.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return "catalog does not match schema: " + strings.Join(parts, "; ")
}

// Load reads the catalog file at path, detects its text encoding, checks its
// structure and parses it.
//
// A missing or unreadable file is a config_read error; anything that fails to
// decode, validate or parse is a config_parse error.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.ConfigReadError(path, err).Build()
	}
	return Parse(path, raw)
}

// Parse decodes raw catalog bytes. path is only used for error context.
func Parse(path string, raw []byte) (*Catalog, error) {
	decoded, err := textenc.Decode(raw)
	if err != nil {
		return nil, ferrors.ConfigParseError(path, err).Build()
	}

	if err := validateStructure(decoded.Text); err != nil {
		return nil, ferrors.ConfigParseError(path, err).
			WithContext("encoding", decoded.Encoding).
			Build()
	}

	var c Catalog
	if err := json.Unmarshal([]byte(decoded.Text), &c); err != nil {
		return nil, ferrors.ConfigParseError(path, err).
			WithContext("encoding", decoded.Encoding).
			Build()
	}
	return &c, nil
}

func validateStructure(doc string) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		// malformed JSON surfaces here
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	se := &SchemaError{}
	for _, re := range result.Errors() {
		se.Errors = append(se.Errors, FieldError{Field: re.Field(), Message: re.Description()})
	}
	return se
}
