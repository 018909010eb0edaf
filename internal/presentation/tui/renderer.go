package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render, nil
}

// InstanceMarkdown describes an instance and its history as markdown.
func InstanceMarkdown(def domain.DefinitionView, inst domain.InstanceView) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", def.Name)

	status := domain.StatusActive
	if inst.IsCompleted {
		status = domain.StatusCompleted
	}
	fmt.Fprintf(&sb, "- **Instance:** `%s`\n", inst.ID)
	fmt.Fprintf(&sb, "- **State:** %s (`%s`)\n", inst.CurrentStateName, inst.CurrentStateID)
	fmt.Fprintf(&sb, "- **Status:** %s\n\n", status)

	if len(inst.History) == 0 {
		sb.WriteString("_No actions executed._\n")
		return sb.String()
	}

	sb.WriteString("## History\n\n")
	sb.WriteString("| # | Action | From | To | At |\n")
	sb.WriteString("|---|--------|------|----|----|\n")
	for i, h := range inst.History {
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s |\n",
			i+1, h.ActionName, h.FromStateID, h.ToStateID, h.Timestamp.Format("15:04:05.000"))
	}
	return sb.String()
}

// ErrorsMarkdown lists validation reasons under a heading.
func ErrorsMarkdown(title string, reasons []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	for _, r := range reasons {
		fmt.Fprintf(&sb, "- %s\n", r)
	}
	return sb.String()
}
