// Package validation checks request payloads against the JSON schemas embedded
// in this package before they are decoded into service inputs.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/natebrady-cyera/deep-thought/internal/apperrors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names a request payload schema.
type Schema string

const (
	SchemaCanvasCreate    Schema = "canvas_create"
	SchemaCanvasUpdate    Schema = "canvas_update"
	SchemaShareCreate     Schema = "share_create"
	SchemaNodeCreate      Schema = "node_create"
	SchemaNodeUpdate      Schema = "node_update"
	SchemaPositionsUpdate Schema = "positions_update"
	SchemaChatCreate      Schema = "chat_create"
	SchemaChatRename      Schema = "chat_rename"
	SchemaMessageSend     Schema = "message_send"
	SchemaRoleUpdate      Schema = "role_update"
	SchemaDevLogin        Schema = "dev_login"
)

const maxMessageLen = 200

var printer = message.NewPrinter(language.English)

// PayloadValidator validates JSON request bodies. Compiled schemas are cached.
type PayloadValidator struct {
	schemaCache *lru.Cache[Schema, *jsonschema.Schema]
}

// NewPayloadValidator creates a validator caching up to cacheSize compiled schemas.
func NewPayloadValidator(cacheSize int) (*PayloadValidator, error) {
	cache, err := lru.New[Schema, *jsonschema.Schema](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create schema cache: %w", err)
	}
	return &PayloadValidator{schemaCache: cache}, nil
}

// Validate checks body against the named schema. Malformed JSON and schema
// violations are reported as apperrors.ErrValidation.
func (v *PayloadValidator) Validate(name Schema, body []byte) error {
	schema, err := v.schema(name)
	if err != nil {
		return err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return apperrors.Validation("request body is not valid JSON")
	}

	if err := schema.Validate(doc); err != nil {
		return apperrors.Validation(formatValidationError(err))
	}
	return nil
}

func (v *PayloadValidator) schema(name Schema) (*jsonschema.Schema, error) {
	if cached, ok := v.schemaCache.Get(name); ok {
		return cached, nil
	}

	schema, err := compileSchema(name)
	if err != nil {
		return nil, err
	}
	v.schemaCache.Add(name, schema)
	return schema, nil
}

func compileSchema(name Schema) (*jsonschema.Schema, error) {
	raw, err := schemaFS.ReadFile("schemas/" + string(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown schema %q: %w", name, err)
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft7)

	url := string(name) + ".json"
	if err := compiler.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", name, err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// formatValidationError reports the failing JSON path, e.g.
// "invalid request at '$.name': length must be >= 1, but got 0".
func formatValidationError(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	// the root error only says "validation failed"; the first cause names the field
	leaf := ve
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	path := "$"
	var parts []string
	for _, part := range leaf.InstanceLocation {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		path = "$." + strings.Join(parts, ".")
	}

	msg := leaf.ErrorKind.LocalizedString(printer)
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "... (truncated)"
	}
	return fmt.Sprintf("invalid request at '%s': %s", path, msg)
}

// CacheSize returns how many compiled schemas are cached.
func (v *PayloadValidator) CacheSize() int {
	return v.schemaCache.Len()
}
