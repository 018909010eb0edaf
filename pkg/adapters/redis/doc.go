// Package redis provides Redis-backed implementations of ports.Store and
// ports.DistributedLocker for deployments that run several engine replicas.
package redis
