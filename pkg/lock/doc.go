/*
Package lock serializes read-modify-write sequences per entity key.

The engine runs every action execution for an instance inside Manager.WithLock, so two
concurrent executions against the same instance can never interleave their
load-validate-mutate-save steps. A DistributedLocker extends the guarantee across replicas
that share a store.
*/
package lock
