// Package payload loads workload payloads and writes context packs.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/ctxpack/internal/workload"
	"gopkg.in/yaml.v3"
)

// ErrEmptyPayload is returned when a payload file has no content.
var ErrEmptyPayload = errors.New("payload is empty")

// Payload is a warehouse schema plus a weighted query workload.
type Payload struct {
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	DDL     []workload.Record `json:"ddl" yaml:"ddl"`
	Queries []workload.Record `json:"queries" yaml:"queries"`

	// Loose is set when the payload was recovered by pattern matching
	// because it was not valid JSON.
	Loose bool `json:"-" yaml:"-"`
}

// Load reads a payload file. YAML files are decoded by extension; anything
// else is decoded as JSON with a loose fallback for broken files.
func Load(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes payload data read from the named file.
func Parse(name string, data []byte) (*Payload, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}

// Decode decodes a JSON payload. If the document is not valid JSON the
// loose extractor is used instead.
func Decode(data []byte) (*Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	p, err := DecodeStrict(data)
	if err != nil {
		return Loose(data), nil
	}
	return p, nil
}

// DecodeStrict decodes a JSON payload without any fallback.
func DecodeStrict(data []byte) (*Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payload JSON: %w", err)
	}
	return &p, nil
}

// DecodeYAML decodes a YAML payload.
func DecodeYAML(data []byte) (*Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	var p Payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payload YAML: %w", err)
	}
	return &p, nil
}

// Analyze builds the context pack for the payload.
func (p *Payload) Analyze(a *workload.Analyzer) *workload.ContextPack {
	return a.Analyze(workload.NormalizeDDL(p.DDL), workload.NormalizeQueries(p.Queries))
}
