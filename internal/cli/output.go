package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/statecraft/internal/presentation/tui"
	"github.com/aretw0/statecraft/pkg/domain"
	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// PrintMarkdown renders md with glamour on a terminal and writes it verbatim otherwise.
func PrintMarkdown(w io.Writer, md string) error {
	if IsTerminal(w) {
		render, err := tui.NewRenderer()
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return fmt.Errorf("failed to render markdown: %w", err)
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ErrorMarkdown lists the reasons of a validation error, or the error message
// for any other failure.
func ErrorMarkdown(title string, err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return tui.ErrorsMarkdown(verr.Summary, verr.Reasons)
	}
	return tui.ErrorsMarkdown(title, []string{err.Error()})
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
