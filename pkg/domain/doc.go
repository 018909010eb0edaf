/*
Package domain contains the core domain models of the Statecraft workflow engine.

It defines the entities a workflow is made of and the runtime records an execution leaves
behind. The package is kept pure and free of I/O or persistence concerns, following
Hexagonal Architecture principles: stores, transports and validators all depend on it, never
the other way around.

# Key Entities

  - State: a named node of a workflow. Exactly one state per definition is initial.
  - Action: a guarded transition from a set of source states to a single target state.
  - Definition: a named, immutable workflow template (states + actions).
  - Instance: one running execution of a Definition, with its current state and history.
  - HistoryEntry: an append-only record of an accepted action.
*/
package domain
