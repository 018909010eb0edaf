package file

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/statecraft/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a definition document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported definition format")

// document is the on-disk shape of a definition.
// YAML uses short keys (initial, from, to); JSON mirrors the REST payload.
type document struct {
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	States      []stateDoc  `yaml:"states" json:"states"`
	Actions     []actionDoc `yaml:"actions" json:"actions"`
}

type stateDoc struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Initial     bool   `yaml:"initial" json:"isInitial"`
	Final       bool   `yaml:"final" json:"isFinal"`
	Enabled     *bool  `yaml:"enabled" json:"enabled"`
	Description string `yaml:"description" json:"description"`
}

type actionDoc struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Enabled     *bool    `yaml:"enabled" json:"enabled"`
	From        []string `yaml:"from" json:"fromStates"`
	To          string   `yaml:"to" json:"toState"`
	Description string   `yaml:"description" json:"description"`
}

// enabled defaults omitted flags to true.
func enabled(b *bool) bool {
	return b == nil || *b
}

func (d document) spec() domain.DefinitionSpec {
	spec := domain.DefinitionSpec{
		Name:        d.Name,
		Description: d.Description,
		States:      make([]domain.State, 0, len(d.States)),
		Actions:     make([]domain.Action, 0, len(d.Actions)),
	}
	for _, s := range d.States {
		spec.States = append(spec.States, domain.State{
			ID:          s.ID,
			Name:        s.Name,
			IsInitial:   s.Initial,
			IsFinal:     s.Final,
			Enabled:     enabled(s.Enabled),
			Description: s.Description,
		})
	}
	for _, a := range d.Actions {
		spec.Actions = append(spec.Actions, domain.Action{
			ID:          a.ID,
			Name:        a.Name,
			Enabled:     enabled(a.Enabled),
			FromStates:  a.From,
			ToState:     a.To,
			Description: a.Description,
		})
	}
	return spec
}

// FormatFromPath infers the document format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Decode parses a definition document. Unknown keys are rejected.
// States and actions without an explicit "enabled" flag are enabled.
func Decode(data []byte, format Format) (domain.DefinitionSpec, error) {
	var doc document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return domain.DefinitionSpec{}, fmt.Errorf("failed to parse yaml definition: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return domain.DefinitionSpec{}, fmt.Errorf("failed to parse json definition: %w", err)
		}
	default:
		return domain.DefinitionSpec{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return doc.spec(), nil
}

// LoadDefinition reads and decodes the definition document at path.
func LoadDefinition(path string) (domain.DefinitionSpec, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return domain.DefinitionSpec{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.DefinitionSpec{}, fmt.Errorf("failed to read definition: %w", err)
	}
	spec, err := Decode(data, format)
	if err != nil {
		return domain.DefinitionSpec{}, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Document is a decoded definition together with its source file.
type Document struct {
	Path string
	Spec domain.DefinitionSpec
}

// LoadDir decodes every YAML/JSON document directly under dir, in file name order.
// Other files and subdirectories are skipped.
func LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition directory: %w", err)
	}

	var docs []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		spec, err := LoadDefinition(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Path: path, Spec: spec})
	}
	return docs, nil
}
