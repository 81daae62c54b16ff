// Package tools implements the agent's tool surface: booking-preference
// tools that mutate session facts, and a page fetcher for listing links
// guests paste into the chat.
package tools

import (
	"encoding/json"

	"github.com/farmstay/farmstay/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolSelectProperty   ToolName = "select_property"
	ToolSetBookingDate   ToolName = "set_booking_date"
	ToolSetShift         ToolName = "set_shift"
	ToolSetBudget        ToolName = "set_budget"
	ToolClearPreferences ToolName = "clear_preferences"
	ToolFetchPage        ToolName = "fetch_page"
)

// Registry holds a named set of tools and exposes them for execution and
// for LLM function-calling definitions.
type Registry struct {
	tools map[string]schema.Tool
}

// Get returns the tool with the given name, or nil.
func (r *Registry) Get(name string) schema.Tool {
	return r.tools[name]
}

// Definitions returns all tool definitions in OpenAI function-calling format.
func (r *Registry) Definitions() []map[string]any {
	list := make([]map[string]any, 0, len(r.tools))
	for _, t := range r.tools {
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		list = append(list, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  params,
			},
		})
	}
	return list
}

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	tools map[string]schema.Tool
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{tools: make(map[string]schema.Tool)}
}

// WithTool adds a tool and returns the builder, enabling chaining.
func (b *RegistryBuilder) WithTool(tool schema.Tool) *RegistryBuilder {
	b.tools[tool.Name()] = tool
	return b
}

// Build produces an immutable Registry from the accumulated tools.
func (b *RegistryBuilder) Build() *Registry {
	tools := make(map[string]schema.Tool, len(b.tools))
	for k, v := range b.tools {
		tools[k] = v
	}
	return &Registry{tools: tools}
}
