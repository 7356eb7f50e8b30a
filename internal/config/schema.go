package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v5"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sadopc/taskonaut/internal/store"
)

var (
	combinationType = reflect.TypeOf(store.Combination{})
	projectsType    = reflect.TypeOf(orderedmap.OrderedMap[string, []string]{})
)

// GenerateSchema reflects the JSON Schema of config.json from Document.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown keys are preserved, not rejected.
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
		Anonymous:                  true,
		Mapper:                     mapType,
	}

	schema := r.Reflect(&Document{})
	schema.Title = "taskonaut configuration"
	schema.Description = "Settings, project registry and auto-split threshold."

	return json.MarshalIndent(schema, "", "  ")
}

func mapType(t reflect.Type) *jsonschema.Schema {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case combinationType:
		return &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				{Type: "string", Pattern: "^.+ - .+$"},
				{Type: "object"},
			},
		}
	case projectsType:
		return &jsonschema.Schema{
			Type:                 "object",
			AdditionalProperties: &jsonschema.Schema{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		}
	}
	return nil
}

var (
	compiled    *jsv.Schema
	compileErr  error
	compileOnce sync.Once
)

func compiledSchema() (*jsv.Schema, error) {
	compileOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			compileErr = err
			return
		}
		compiler := jsv.NewCompiler()
		if err := compiler.AddResource("config.json", strings.NewReader(string(data))); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("config.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks raw config.json bytes against the generated schema.
func Validate(data []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		if validationErr, ok := err.(*jsv.ValidationError); ok {
			var messages []string
			collectErrors(validationErr, &messages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(messages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func collectErrors(err *jsv.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
