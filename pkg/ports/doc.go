/*
Package ports defines the ports (interfaces) of the Statecraft engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, lock services and transports.

# Key Interfaces

  - WorkflowEngine: The driving port that transports (HTTP, MCP, CLI) call into.
  - Store: Persists workflow definitions and instances, keyed by ID, in insertion order.
  - DistributedLocker: Provides distributed locking for concurrent instance access across replicas.
*/
package ports
