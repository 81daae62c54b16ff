package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Persona describes the bot's voice and house rules, loaded from a YAML file
// so operators can retune the tone without a rebuild.
type Persona struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Style       []string `yaml:"style"`
	Rules       []string `yaml:"rules"`
}

// DefaultPersona is used when no persona file is configured.
func DefaultPersona() Persona {
	return Persona{
		Name:        "Meadow",
		Description: "Booking assistant for farmstay, helping guests find and book farmhouses and huts.",
		Style: []string{
			"Warm and concise; short messages suited to chat.",
			"One question at a time when gathering preferences.",
		},
		Rules: []string{
			"Never invent availability or prices; rely on tools and recorded facts.",
			"Confirm property, date, and shift before any booking step.",
			"Hand off to a human operator when the guest asks for one.",
		},
	}
}

// LoadPersona reads a persona YAML file. An empty path returns the default
// persona; a missing file does too, so first runs work without setup.
func LoadPersona(path string) (Persona, error) {
	if path == "" {
		return DefaultPersona(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPersona(), nil
		}
		return Persona{}, fmt.Errorf("read persona %s: %w", path, err)
	}
	persona := DefaultPersona()
	if err := yaml.Unmarshal(data, &persona); err != nil {
		return Persona{}, fmt.Errorf("parse persona %s: %w", path, err)
	}
	return persona, nil
}
