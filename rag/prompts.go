package rag

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultSystemPrompt = "You are an intelligent assistant. Provide answers based on the given context."
	defaultUserPrompt   = "Context:\n{{context}}\n\nQuestion: {{query}}"
)

// Prompts holds the system instruction and the user message template sent to
// the LLM. The user template may reference {{context}} and {{query}}.
type Prompts struct {
	System string `toml:"system"`
	User   string `toml:"user"`
}

func DefaultPrompts() Prompts {
	return Prompts{
		System: defaultSystemPrompt,
		User:   defaultUserPrompt,
	}
}

// LoadPrompts reads prompt overrides from a TOML file:
//
//	system = "You answer questions about the user's notes."
//	user = """
//	Notes:
//	{{context}}
//
//	Question: {{query}}"""
//
// Keys that are missing or blank keep their defaults.
func LoadPrompts(path string) (Prompts, error) {
	p := DefaultPrompts()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read prompts file: %w", err)
	}

	var override Prompts
	if err := toml.Unmarshal(data, &override); err != nil {
		return p, fmt.Errorf("decode prompts file %s: %w", path, err)
	}
	if strings.TrimSpace(override.System) != "" {
		p.System = override.System
	}
	if strings.TrimSpace(override.User) != "" {
		p.User = override.User
	}
	return p, nil
}

// Render fills the user template.
func (p Prompts) Render(query, contextText string) string {
	return strings.NewReplacer("{{context}}", contextText, "{{query}}", query).Replace(p.User)
}
