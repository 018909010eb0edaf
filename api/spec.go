// Package api embeds the REST contract of the statecraft HTTP transport.
package api

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI is the raw OpenAPI 3 document.
//
//go:embed openapi.yaml
var OpenAPI []byte

var (
	loadOnce sync.Once
	doc      *openapi3.T
	loadErr  error
)

// Load parses and validates the embedded document. The result is cached.
func Load() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, loadErr = loader.LoadFromData(OpenAPI)
		if loadErr != nil {
			loadErr = fmt.Errorf("failed to load openapi document: %w", loadErr)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			doc, loadErr = nil, fmt.Errorf("invalid openapi document: %w", err)
		}
	})
	return doc, loadErr
}
