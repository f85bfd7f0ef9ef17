// Package tools exposes the fixed set of callable capabilities the model can
// invoke during a conversation. Each tool declares a typed input schema and
// returns its own result variant; ResultFor normalization happens once at the
// orchestrator boundary via the Result interface.
package tools

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/llms"

	"mango-chat-backend/model"
	"mango-chat-backend/service/knowledge"
)

// Result is the tagged output variant of one tool call. SourceURLs feeds the
// citation validator; implementations return every literal source URL their
// payload carries.
type Result interface {
	SourceURLs() []string
}

type Tool interface {
	Name() string
	Description() string

	// Parameters is the JSON schema of the tool's input contract.
	Parameters() map[string]any

	// Call validates args against the input contract and executes. Partial
	// or absent data is reported inside the Result; an error return is
	// reserved for inputs that violate the contract.
	Call(ctx context.Context, args json.RawMessage) (Result, error)
}

// Searcher is the slice of the knowledge service the tools consume.
type Searcher interface {
	Search(ctx context.Context, query string, opts knowledge.SearchOptions) []model.KnowledgeSnippet
}

// ImageProvider is the slice of the image service the tools consume.
type ImageProvider interface {
	GetImages(ctx context.Context, query string, count int) []model.Image
}

// ErrorResult reports a failed tool invocation to the model without
// terminating the request.
type ErrorResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (ErrorResult) SourceURLs() []string { return nil }

func NewErrorResult(err error) ErrorResult {
	return ErrorResult{Success: false, Error: err.Error()}
}

// Registry is the fixed tool set handed to the orchestrator.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools = append(r.tools, t)
		r.byName[t.Name()] = t
	}
	return r
}

func (r *Registry) Get(name string) Tool {
	return r.byName[name]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Name())
	}
	return names
}

// Subset returns a registry restricted to the named tools, used when the
// intent pre-router forces a single tool for a step.
func (r *Registry) Subset(names ...string) *Registry {
	var subset []Tool
	for _, name := range names {
		if t := r.byName[name]; t != nil {
			subset = append(subset, t)
		}
	}
	return NewRegistry(subset...)
}

// Definitions renders the registry in the shape the LLM binding expects.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}
