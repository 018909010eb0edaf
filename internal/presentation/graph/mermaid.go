package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/statecraft/pkg/domain"
)

// Overlay contains instance data to visualize on the graph.
type Overlay struct {
	VisitedStates []string
	CurrentState  string
}

// OverlayFromInstance marks every state the instance passed through and its current state.
func OverlayFromInstance(inst domain.InstanceView) *Overlay {
	o := &Overlay{CurrentState: inst.CurrentStateID}
	for _, h := range inst.History {
		o.VisitedStates = append(o.VisitedStates, h.FromStateID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of a workflow definition.
// It applies semantic styling:
// - Initial: ((Circle))
// - Final: (((Double circle)))
// - Default: [Rectangle]
// Disabled states and actions are drawn dashed.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(def domain.DefinitionView, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var disabled []string
	for _, s := range def.States {
		safeID := sanitizeMermaidID(s.ID)

		opener, closer := "[", "]"
		switch {
		case s.IsInitial:
			opener, closer = "((", "))"
		case s.IsFinal:
			opener, closer = "(((", ")))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(s.Name), closer)

		if !s.Enabled {
			disabled = append(disabled, safeID)
		}
	}

	for _, a := range def.Actions {
		safeTo := sanitizeMermaidID(a.ToState)
		label := escapeLabel(a.Name)
		for _, from := range a.FromStates {
			if a.Enabled {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", sanitizeMermaidID(from), label, safeTo)
			} else {
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", sanitizeMermaidID(from), label, safeTo)
			}
		}
	}

	if len(disabled) > 0 {
		sb.WriteString("\n    classDef disabled stroke-dasharray:5 5,color:#888;\n")
		for _, id := range disabled {
			fmt.Fprintf(&sb, "    class %s disabled;\n", id)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedStates {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" && id != overlay.CurrentState {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentState != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentState))
		}
	}

	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return r.Replace(id)
}
