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

var schemaFiles = map[string]string{
	TypeHello:     "hello.schema.json",
	TypeWand:      "wand.schema.json",
	TypeClearWand: "clear_wand.schema.json",
	TypeCount:     "count.schema.json",
	TypeFill:      "fill.schema.json",
	TypeUndo:      "steps.schema.json",
	TypeRedo:      "steps.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		compiled := map[string]*jsonschema.Schema{}
		for typ, name := range schemaFiles {
			if s, ok := compiled[name]; ok {
				compiled[typ] = s
				continue
			}
			raw, err := schemaFS.ReadFile("schemas/" + name)
			if err != nil {
				schemasErr = err
				return
			}
			if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
				schemasErr = fmt.Errorf("%s: %w", name, err)
				return
			}
			s, err := c.Compile(name)
			if err != nil {
				schemasErr = fmt.Errorf("%s: %w", name, err)
				return
			}
			compiled[name] = s
			compiled[typ] = s
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// Validate checks a client message of type typ against its JSON schema.
func Validate(typ string, raw []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	s, ok := all[typ]
	if !ok {
		return fmt.Errorf("unknown message type %q", typ)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}
