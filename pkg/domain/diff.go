package domain

// InstanceDiff represents the changes between two snapshots of an instance.
// It is designed to be serialized to JSON for partial updates on the client.
type InstanceDiff struct {
	// InstanceID is always present to identify the target.
	InstanceID string `json:"instance_id"`

	CurrentStateID *string `json:"current_state_id,omitempty"`
	IsCompleted    *bool   `json:"is_completed,omitempty"`

	// HistoryAppended contains only entries appended since the old snapshot.
	HistoryAppended []HistoryEntry `json:"history_appended,omitempty"`
}

// Diff calculates the difference between oldInst and newInst.
// If oldInst is nil, the diff describes the whole of newInst.
// It returns nil when nothing changed.
func Diff(oldInst, newInst *Instance) *InstanceDiff {
	if newInst == nil {
		return nil
	}

	diff := &InstanceDiff{InstanceID: newInst.ID}

	if oldInst == nil || oldInst.CurrentStateID != newInst.CurrentStateID {
		diff.CurrentStateID = &newInst.CurrentStateID
	}
	if oldInst == nil {
		if newInst.IsCompleted {
			diff.IsCompleted = &newInst.IsCompleted
		}
	} else if oldInst.IsCompleted != newInst.IsCompleted {
		diff.IsCompleted = &newInst.IsCompleted
	}

	// History is append-only, so anything past the old length is new.
	oldLen := 0
	if oldInst != nil {
		oldLen = len(oldInst.History)
	}
	if len(newInst.History) > oldLen {
		diff.HistoryAppended = newInst.History[oldLen:]
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *InstanceDiff) IsEmpty() bool {
	return d.CurrentStateID == nil &&
		d.IsCompleted == nil &&
		len(d.HistoryAppended) == 0
}
