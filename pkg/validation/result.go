package validation

import (
	"fmt"
	"slices"

	"github.com/aretw0/statecraft/pkg/domain"
)

// Result is the immutable outcome of a validation pass.
type Result struct {
	Valid  bool
	Errors []string
}

// Err converts an invalid result into a *domain.ValidationError carrying summary.
// It returns nil when the result is valid.
func (r Result) Err(summary string) error {
	if r.Valid {
		return nil
	}
	return &domain.ValidationError{Summary: summary, Reasons: slices.Clone(r.Errors)}
}

// collector accumulates rule violations in check order.
type collector struct {
	errs []string
}

func (c *collector) addf(format string, args ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, args...))
}

func (c *collector) check(ok bool, format string, args ...any) {
	if !ok {
		c.addf(format, args...)
	}
}

func (c *collector) result() Result {
	return Result{
		Valid:  len(c.errs) == 0,
		Errors: slices.Clip(c.errs),
	}
}
