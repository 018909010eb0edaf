package validation_test

import (
	"testing"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/aretw0/statecraft/pkg/validation"
	"github.com/stretchr/testify/assert"
)

func TestValidateExecution(t *testing.T) {
	def := validDefinition()
	submit, _ := def.Action("submit")

	tests := []struct {
		name     string
		instance domain.Instance
		action   domain.Action
		want     []string
	}{
		{
			name:     "allowed",
			instance: domain.Instance{CurrentStateID: "draft"},
			action:   *submit,
		},
		{
			name:     "disabled action",
			instance: domain.Instance{CurrentStateID: "draft"},
			action:   domain.Action{ID: "submit", FromStates: []string{"draft"}, ToState: "review"},
			want:     []string{"Action 'submit' is disabled"},
		},
		{
			name:     "wrong source state",
			instance: domain.Instance{CurrentStateID: "review"},
			action:   *submit,
			want:     []string{"Action 'submit' cannot be executed from current state 'review'"},
		},
		{
			name:     "completed instance",
			instance: domain.Instance{CurrentStateID: "draft", IsCompleted: true},
			action:   *submit,
			want:     []string{"Cannot execute actions on a completed workflow instance"},
		},
		{
			name:     "all rules accumulate",
			instance: domain.Instance{CurrentStateID: "done", IsCompleted: true},
			action:   domain.Action{ID: "submit", FromStates: []string{"draft"}, ToState: "review"},
			want: []string{
				"Action 'submit' is disabled",
				"Action 'submit' cannot be executed from current state 'done'",
				"Cannot execute actions on a completed workflow instance",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := validation.ValidateExecution(&tt.instance, &tt.action, def)
			assert.Equal(t, len(tt.want) == 0, res.Valid)
			if len(tt.want) == 0 {
				assert.Empty(t, res.Errors)
				return
			}
			assert.Equal(t, tt.want, res.Errors)
		})
	}
}
