package tool

import (
	"context"
	"fmt"

	"github.com/cexll/deckagent-go/pkg/model"
)

// Handler executes one well-formed tool call. Handlers are total over valid
// input: filesystem failures come back as errors here and are converted into
// error-flagged results at the dispatch boundary, never raised past it.
type Handler func(ctx context.Context, input map[string]any) (string, error)

// Spec declares a tool's catalog entry.
type Spec struct {
	Name        string
	Description string
	InputSchema *JSONSchema
}

// Definition binds a Spec to its Handler. Terminal marks the designated
// return-result tool whose output carries the completion marker.
type Definition struct {
	Spec     Spec
	Handler  Handler
	Terminal bool
}

// Registry is a closed catalog: the tool set is fixed at construction and
// every dispatch is validated against the declared input schema.
type Registry struct {
	order     []string
	defs      map[string]Definition
	validator Validator
}

// NewRegistry builds a registry from the provided definitions, preserving
// declaration order for the catalog.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:      make(map[string]Definition, len(defs)),
		validator: DefaultValidator{},
	}
	for _, def := range defs {
		name := def.Spec.Name
		if name == "" {
			return nil, fmt.Errorf("tool name is empty")
		}
		if def.Handler == nil {
			return nil, fmt.Errorf("tool %s has no handler", name)
		}
		if _, exists := r.defs[name]; exists {
			return nil, fmt.Errorf("tool %s already registered", name)
		}
		r.defs[name] = def
		r.order = append(r.order, name)
	}
	return r, nil
}

// Specs produces the catalog in declaration order, ready to attach to a model
// request.
func (r *Registry) Specs() []model.ToolSpec {
	specs := make([]model.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		def := r.defs[name]
		specs = append(specs, model.ToolSpec{
			Name:        def.Spec.Name,
			Description: def.Spec.Description,
			InputSchema: def.Spec.InputSchema,
		})
	}
	return specs
}

// Dispatch executes one tool call and always returns a Result. Unknown
// tools, schema violations, and handler failures degrade to error-flagged
// results so a single bad call never aborts the loop.
func (r *Registry) Dispatch(ctx context.Context, call model.ToolCall) Result {
	res := Result{CallID: call.ID}

	def, ok := r.defs[call.Name]
	if !ok {
		res.Content = fmt.Sprintf("Error: Unknown tool '%s'", call.Name)
		res.IsError = true
		return res
	}

	if err := r.validator.Validate(call.Arguments, def.Spec.InputSchema); err != nil {
		res.Content = fmt.Sprintf("Error executing %s: %s", call.Name, err)
		res.IsError = true
		return res
	}

	content, err := def.Handler(ctx, call.Arguments)
	if err != nil {
		res.Content = fmt.Sprintf("Error executing %s: %s", call.Name, err)
		res.IsError = true
		return res
	}
	res.Content = content

	if def.Terminal {
		terminal, err := ParseTerminal(content)
		if err != nil {
			// Malformed terminal payload: report a failed terminal result
			// instead of propagating, so the session still ends cleanly.
			res.IsError = true
			res.Terminal = &TerminalResult{
				Success: false,
				Message: fmt.Sprintf("malformed completion payload: %s", err),
			}
			return res
		}
		res.Terminal = &terminal
	}
	return res
}
