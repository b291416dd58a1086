package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	foremanschema "github.com/Paintersrp/foreman/schema"
)

const settingsSchemaURL = "config.v1.json"

var (
	settingsSchemaOnce sync.Once
	settingsSchema     *jsonschema.Schema
	settingsSchemaErr  error
)

func compiledSettingsSchema() (*jsonschema.Schema, error) {
	settingsSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(settingsSchemaURL, bytes.NewReader(foremanschema.ConfigV1Schema)); err != nil {
			settingsSchemaErr = fmt.Errorf("add settings schema: %w", err)
			return
		}
		settingsSchema, settingsSchemaErr = compiler.Compile(settingsSchemaURL)
		if settingsSchemaErr != nil {
			settingsSchemaErr = fmt.Errorf("compile settings schema: %w", settingsSchemaErr)
		}
	})
	return settingsSchema, settingsSchemaErr
}

// settingProblem is one schema violation attributed to a top-level key.
type settingProblem struct {
	key     string
	message string
}

// validateAgainstSchema checks a decoded .foreman document and reports every
// offending key on its own line, sorted by key.
func validateAgainstSchema(doc map[string]any) error {
	schema, err := compiledSettingsSchema()
	if err != nil {
		return err
	}

	instance, err := jsonInstance(doc)
	if err != nil {
		return fmt.Errorf("prepare settings for validation: %w", err)
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}
	var vErr *jsonschema.ValidationError
	if !errors.As(err, &vErr) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	problems := collectProblems(vErr, schema, doc, nil)
	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].key < problems[j].key
	})
	var b strings.Builder
	b.WriteString("schema validation failed:")
	seen := make(map[settingProblem]bool, len(problems))
	for _, p := range problems {
		if seen[p] {
			continue
		}
		seen[p] = true
		fmt.Fprintf(&b, "\n- %s: %s", p.key, p.message)
	}
	return errors.New(b.String())
}

// jsonInstance converts YAML scalars into the JSON value types the validator
// understands.
func jsonInstance(doc map[string]any) (any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectProblems(err *jsonschema.ValidationError, schema *jsonschema.Schema, doc map[string]any, out []settingProblem) []settingProblem {
	if len(err.Causes) > 0 {
		for _, cause := range err.Causes {
			out = collectProblems(cause, schema, doc, out)
		}
		return out
	}

	if strings.HasSuffix(err.KeywordLocation, "/additionalProperties") {
		allowed := strings.Join(knownSettings(schema), ", ")
		for _, key := range unknownSettings(schema, doc) {
			out = append(out, settingProblem{key: key, message: "unknown setting (allowed: " + allowed + ")"})
		}
		return out
	}

	key := settingKey(err.InstanceLocation)
	if key == "" {
		key = "settings"
	}
	return append(out, settingProblem{key: key, message: err.Message})
}

// settingKey renders an instance pointer such as /env/1 as env[1].
func settingKey(location string) string {
	parts := strings.Split(strings.TrimPrefix(location, "/"), "/")
	key := parts[0]
	for _, index := range parts[1:] {
		key += "[" + index + "]"
	}
	return key
}

func knownSettings(schema *jsonschema.Schema) []string {
	keys := make([]string, 0, len(schema.Properties))
	for key := range schema.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func unknownSettings(schema *jsonschema.Schema, doc map[string]any) []string {
	var keys []string
	for key := range doc {
		if _, ok := schema.Properties[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
