package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schemas/config.schema.json
var configSchema []byte

const schemaURL = "https://github.com/aki/tailbox/config.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// compileSchema compiles the embedded JSON schema once
func compileSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(configSchema))
		if err != nil {
			schemaErr = fmt.Errorf("failed to parse schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}

		compiledSchema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to compile schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateYAML validates raw YAML content against the JSON schema
func ValidateYAML(yamlContent []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	var data any
	if err := yaml.Unmarshal(yamlContent, &data); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON value types.
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidateConfig checks the rules the schema cannot express
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if len(cfg.Agents) == 0 {
		return fmt.Errorf("no agents configured")
	}

	names := make([]string, 0, len(cfg.Agents))
	for name := range cfg.Agents {
		names = append(names, name)
	}
	sort.Strings(names)

	readers := make(map[string]string)
	for _, name := range names {
		a := cfg.Agents[name]
		if err := ValidateAgent(&a); err != nil {
			return fmt.Errorf("invalid agent '%s': %w", name, err)
		}
		inbox := filepath.Clean(a.Inbox)
		if other, ok := readers[inbox]; ok {
			return fmt.Errorf("agents '%s' and '%s' read the same inbox %s", other, name, a.Inbox)
		}
		readers[inbox] = name
	}
	return nil
}

// ValidateAgent validates an individual agent configuration
func ValidateAgent(a *Agent) error {
	if a == nil {
		return fmt.Errorf("agent is nil")
	}
	if a.Inbox == "" {
		return fmt.Errorf("inbox is required")
	}
	if a.Outbox == "" {
		return fmt.Errorf("outbox is required")
	}
	if filepath.Clean(a.Inbox) == filepath.Clean(a.Outbox) {
		return fmt.Errorf("inbox and outbox must differ")
	}
	if a.PollInterval < 0 {
		return fmt.Errorf("pollInterval must not be negative")
	}
	if a.Generator != nil && a.Generator.Interval < 0 {
		return fmt.Errorf("generator interval must not be negative")
	}
	if a.Filter != nil && a.Filter.Keyword == "" {
		return fmt.Errorf("filter keyword is required")
	}
	return nil
}
