// Package mcp exposes the workflow engine as Model Context Protocol tools,
// served over stdio or SSE.
package mcp
