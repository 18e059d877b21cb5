// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "fmt"

// =============================================================================
// TOOL REGISTRY
// =============================================================================

// Registry is the static catalog of tool definitions. It is populated once
// at construction and read-only afterwards, which makes it safe for
// concurrent use without locking.
type Registry struct {
	defs map[ToolName]*Definition
}

// NewRegistry builds a registry containing the built-in tool catalog.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[ToolName]*Definition)}
	for _, def := range builtinDefinitions() {
		r.defs[def.Name] = def
	}
	return r
}

// Get returns the definition for a tool name.
func (r *Registry) Get(name ToolName) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// All returns the definitions in enum order.
func (r *Registry) All() []*Definition {
	result := make([]*Definition, 0, len(r.defs))
	for _, name := range AllToolNames() {
		if def, ok := r.defs[name]; ok {
			result = append(result, def)
		}
	}
	return result
}

// =============================================================================
// PARAMETER VALIDATION
// =============================================================================

// ValidationError reports the first parameter that failed validation.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Param + ": " + e.Message
}

// ValidateParameters checks a parameter map against a tool's schema.
// Checks run in order: the tool must exist, every required parameter must
// be present, and present parameters must match their declared type. The
// first violation wins; the returned error names the offending parameter.
//
// Pure function of its inputs: no side effects, identical input yields
// identical output.
func (r *Registry) ValidateParameters(name ToolName, params map[string]interface{}) error {
	def, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	for _, p := range def.Parameters {
		val, exists := params[p.Name]

		if p.Required && (!exists || val == nil) {
			return &ValidationError{Param: p.Name, Message: "required parameter is missing"}
		}
		if !exists || val == nil {
			continue
		}
		if err := validateType(p, val); err != nil {
			return err
		}
	}
	return nil
}

// validateType checks a single value against its parameter's declared type.
// Numbers accept every Go numeric type JSON decoding can produce.
func validateType(p Parameter, val interface{}) error {
	switch p.Type {
	case TypeString:
		if _, ok := val.(string); !ok {
			return &ValidationError{Param: p.Name, Message: "expected string"}
		}
	case TypeNumber:
		switch val.(type) {
		case int, int32, int64, float32, float64:
		default:
			return &ValidationError{Param: p.Name, Message: "expected number"}
		}
	case TypeBoolean:
		if _, ok := val.(bool); !ok {
			return &ValidationError{Param: p.Name, Message: "expected boolean"}
		}
	case TypeArray:
		if _, ok := val.([]interface{}); !ok {
			return &ValidationError{Param: p.Name, Message: "expected array"}
		}
	}
	return nil
}

// =============================================================================
// PARAMETER ACCESS HELPERS
// =============================================================================

// getString extracts a string parameter with a default.
func getString(params map[string]interface{}, name, defaultVal string) string {
	if val, ok := params[name]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// getInt extracts an integer parameter with a default, accepting the
// numeric types JSON decoding produces.
func getInt(params map[string]interface{}, name string, defaultVal int) int {
	if val, ok := params[name]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float32:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultVal
}

// getBool extracts a boolean parameter with a default.
func getBool(params map[string]interface{}, name string, defaultVal bool) bool {
	if val, ok := params[name]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return defaultVal
}
