// Package seed loads workflow definitions from YAML at startup.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/workflow-engine/internal/domain/workflow"
)

// Creator is the part of the engine the loader needs
type Creator interface {
	CreateDefinition(ctx context.Context, name string, states []workflow.State, actions []workflow.Action) (*workflow.Definition, error)
}

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Document is the top level of a seed file
type Document struct {
	Workflows []Workflow `yaml:"workflows"`
}

// Workflow is one seeded definition
type Workflow struct {
	Name    string   `yaml:"name"`
	States  []State  `yaml:"states"`
	Actions []Action `yaml:"actions"`
}

// State mirrors the API shape; enabled defaults to true
type State struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	IsInitial   bool   `yaml:"isInitial"`
	IsFinal     bool   `yaml:"isFinal"`
	Enabled     *bool  `yaml:"enabled"`
	Description string `yaml:"description"`
}

// Action mirrors the API shape; enabled defaults to true
type Action struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Enabled     *bool    `yaml:"enabled"`
	FromStates  []string `yaml:"fromStates"`
	ToState     string   `yaml:"toState"`
	Description string   `yaml:"description"`
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if len(bytes.TrimSpace(data)) == 0 {
		return &doc, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed: decode: %w", err)
	}
	return &doc, nil
}

// LoadFile parses the file at path and creates every workflow in it
func LoadFile(ctx context.Context, path string, creator Creator, logger Logger) ([]*workflow.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("seed: %s: %w", path, err)
	}

	return Apply(ctx, doc, creator, logger)
}

// Apply creates the document's workflows in order and stops at the first
// rejected one. Definitions created before the failure are kept.
func Apply(ctx context.Context, doc *Document, creator Creator, logger Logger) ([]*workflow.Definition, error) {
	created := make([]*workflow.Definition, 0, len(doc.Workflows))

	for i, wf := range doc.Workflows {
		states, actions := wf.toDomain()
		def, err := creator.CreateDefinition(ctx, wf.Name, states, actions)
		if err != nil {
			logger.Error("Seed workflow rejected", "index", i, "name", wf.Name, "error", err)
			return created, fmt.Errorf("seed: workflow %d (%q): %w", i, wf.Name, err)
		}

		logger.Info("Seed workflow created", "definition_id", def.ID, "name", def.Name)
		created = append(created, def)
	}

	return created, nil
}

func enabled(b *bool) bool {
	return b == nil || *b
}

func (w Workflow) toDomain() ([]workflow.State, []workflow.Action) {
	states := make([]workflow.State, len(w.States))
	for i, s := range w.States {
		states[i] = workflow.State{
			ID:          s.ID,
			Name:        s.Name,
			IsInitial:   s.IsInitial,
			IsFinal:     s.IsFinal,
			Enabled:     enabled(s.Enabled),
			Description: s.Description,
		}
	}

	actions := make([]workflow.Action, len(w.Actions))
	for i, a := range w.Actions {
		actions[i] = workflow.Action{
			ID:          a.ID,
			Name:        a.Name,
			Enabled:     enabled(a.Enabled),
			FromStates:  a.FromStates,
			ToState:     a.ToState,
			Description: a.Description,
		}
	}

	return states, actions
}
