// Package runtime implements the workflow engine: definition creation, instance
// creation and action execution on top of a ports.Store.
package runtime
