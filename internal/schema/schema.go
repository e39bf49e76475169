// Package schema validates vendor payloads before they are decoded into
// typed records.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var files embed.FS

// Payload names.
const (
	Status          = "status"
	Systems         = "ac-systems"
	Pairing         = "pairing-token"
	CommandResponse = "command-response"
)

var ErrInvalidPayload = errors.New("payload failed schema validation")

// Validator holds the compiled payload schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
	logger  *slog.Logger
}

// New compiles the embedded schemas.
func New(logger *slog.Logger) (*Validator, error) {
	v := &Validator{
		schemas: make(map[string]*jsonschema.Schema),
		logger:  logger,
	}

	for _, name := range []string{Status, Systems, Pairing, CommandResponse} {
		data, err := files.ReadFile("schemas/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}

		compiler := jsonschema.NewCompiler()
		url := name + ".json"
		if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
		s, err := compiler.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}

	return v, nil
}

// Validate checks body against the named schema. An empty body is invalid.
func (v *Validator) Validate(name string, body []byte) error {
	s, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		v.logger.Warn("Empty payload", "schema", name)
		return fmt.Errorf("%s: %w", name, ErrInvalidPayload)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		v.logger.Warn("Payload is not JSON", "schema", name, "error", err, "payload", string(body))
		return fmt.Errorf("%s: %w: %v", name, ErrInvalidPayload, err)
	}

	if err := s.Validate(doc); err != nil {
		v.logger.Warn("Payload failed validation", "schema", name, "error", err, "payload", string(body))
		return fmt.Errorf("%s: %w: %v", name, ErrInvalidPayload, err)
	}
	return nil
}

// Check reports whether body conforms to the named schema.
func (v *Validator) Check(name string, body []byte) bool {
	return v.Validate(name, body) == nil
}
