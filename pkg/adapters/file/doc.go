// Package file provides filesystem adapters: a ports.Store that keeps one JSON
// file per entity, and a loader for YAML/JSON definition documents.
package file
