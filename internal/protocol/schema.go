package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://galax.network/schemas/"

var (
	schemaOnce sync.Once
	schemaErr  error
	schemas    map[string]*jsonschema.Schema
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	names := []string{"hello.schema.json", "prove.schema.json", "tx.schema.json"}
	for _, n := range names {
		raw, err := schemaFS.ReadFile("schemas/" + n)
		if err != nil {
			schemaErr = err
			return
		}
		if err := c.AddResource(schemaBase+n, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("schema %s: %w", n, err)
			return
		}
	}
	schemas = make(map[string]*jsonschema.Schema, len(names))
	for _, n := range names {
		s, err := c.Compile(schemaBase + n)
		if err != nil {
			schemaErr = fmt.Errorf("compile %s: %w", n, err)
			return
		}
		schemas[n] = s
	}
}

func validateRaw(name string, raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return schemaErr
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return schemas[name].Validate(v)
}

// ValidateTx checks a raw TX message against the embedded schema.
func ValidateTx(raw []byte) error { return validateRaw("tx.schema.json", raw) }

// ValidateHello checks a raw HELLO message against the embedded schema.
func ValidateHello(raw []byte) error { return validateRaw("hello.schema.json", raw) }

// ValidateProve checks a raw PROVE message against the embedded schema.
func ValidateProve(raw []byte) error { return validateRaw("prove.schema.json", raw) }
