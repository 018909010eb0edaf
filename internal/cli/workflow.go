package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/statecraft"
	"github.com/aretw0/statecraft/internal/presentation/graph"
	"github.com/aretw0/statecraft/internal/presentation/tui"
	"github.com/aretw0/statecraft/pkg/adapters/file"
	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/validation"
)

// Validate decodes the definition document at path and checks it without storing it.
// The error is only set when the document cannot be read or decoded.
func Validate(path string) (domain.DefinitionSpec, validation.Result, error) {
	spec, err := file.LoadDefinition(path)
	if err != nil {
		return domain.DefinitionSpec{}, validation.Result{}, err
	}
	def := &domain.Definition{
		Name:        spec.Name,
		Description: spec.Description,
		States:      spec.States,
		Actions:     spec.Actions,
	}
	return spec, validation.ValidateDefinition(def), nil
}

// Replay loads the definition at path into a fresh in-memory engine, starts an
// instance and executes actions in order.
// On a failed action it returns the instance as it stood before that action,
// together with the error.
func Replay(ctx context.Context, path string, actions []string) (*domain.DefinitionView, *domain.InstanceView, error) {
	spec, err := file.LoadDefinition(path)
	if err != nil {
		return nil, nil, err
	}

	eng := statecraft.New()
	def, err := eng.CreateDefinition(ctx, spec)
	if err != nil {
		return nil, nil, err
	}
	inst, err := eng.CreateInstance(ctx, def.ID)
	if err != nil {
		return def, nil, err
	}

	for _, actionID := range actions {
		next, err := eng.ExecuteAction(ctx, inst.ID, actionID)
		if err != nil {
			return def, inst, fmt.Errorf("action %q: %w", actionID, err)
		}
		inst = next
	}
	return def, inst, nil
}

// Graph renders the definition at path as Mermaid. With actions, they are
// replayed first and the instance's path is highlighted.
func Graph(ctx context.Context, path string, actions []string) (string, error) {
	def, inst, err := Replay(ctx, path, actions)
	if err != nil {
		return "", err
	}
	var overlay *graph.Overlay
	if len(actions) > 0 {
		overlay = graph.OverlayFromInstance(*inst)
	}
	return graph.GenerateMermaid(*def, overlay), nil
}

// RunReport is the machine-readable output of Run.
type RunReport struct {
	Definition domain.DefinitionView `json:"definition"`
	Instance   *domain.InstanceView  `json:"instance,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Run replays actions against the definition at path and reports the instance to w,
// as JSON when asJSON is set or w is not a terminal.
// A rejected action is reported and returned.
func Run(ctx context.Context, w io.Writer, path string, actions []string, asJSON bool) error {
	def, inst, runErr := Replay(ctx, path, actions)
	if def == nil {
		return runErr
	}

	if asJSON || !IsTerminal(w) {
		report := RunReport{Definition: *def, Instance: inst}
		if runErr != nil {
			report.Error = runErr.Error()
		}
		if err := PrintJSON(w, report); err != nil {
			return err
		}
		return runErr
	}

	if inst != nil {
		if err := PrintMarkdown(w, tui.InstanceMarkdown(*def, *inst)); err != nil {
			return err
		}
	}
	if runErr != nil {
		if err := PrintMarkdown(w, ErrorMarkdown("Run failed", runErr)); err != nil {
			return err
		}
		return runErr
	}
	printSystemMessage(w, "Finished at '%s' state.", inst.CurrentStateID)
	return nil
}
