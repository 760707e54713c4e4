package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Persona is the companion persona definition: YAML frontmatter with the
// structured fields, markdown body with the system-prompt text.
type Persona struct {
	Name        string   `yaml:"name"`
	Personality string   `yaml:"personality"`
	Tone        string   `yaml:"tone"`
	Traits      []string `yaml:"traits"`

	// Prompt is the markdown body below the frontmatter.
	Prompt string `yaml:"-"`
}

// DefaultPersona is used when no persona file is configured.
func DefaultPersona() *Persona {
	return &Persona{
		Name:        "Navi",
		Personality: "warm, encouraging, curious",
		Tone:        "casual",
		Prompt:      "You are Navi, the user's growth companion.",
	}
}

// LoadPersona parses a persona markdown file with YAML frontmatter
// delimited by "---" lines.
func LoadPersona(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}

	content := string(data)
	p := DefaultPersona()

	if strings.HasPrefix(content, "---\n") {
		rest := content[4:]
		end := strings.Index(rest, "\n---")
		if end < 0 {
			return nil, fmt.Errorf("persona frontmatter not terminated")
		}
		if err := yaml.Unmarshal([]byte(rest[:end]), p); err != nil {
			return nil, fmt.Errorf("parse persona frontmatter: %w", err)
		}
		body := rest[end+4:]
		p.Prompt = strings.TrimSpace(body)
		return p, nil
	}

	p.Prompt = strings.TrimSpace(content)
	return p, nil
}
