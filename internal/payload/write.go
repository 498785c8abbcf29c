package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/ctxpack/internal/workload"
)

// PackSuffix is appended to the payload base name for context pack files.
const PackSuffix = ".context_pack.json"

// OutputPath returns where the context pack for payloadPath is written.
// An empty outDir means next to the payload.
func OutputPath(payloadPath, outDir string) string {
	base := filepath.Base(payloadPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + PackSuffix
	if outDir == "" {
		return filepath.Join(filepath.Dir(payloadPath), name)
	}
	return filepath.Join(outDir, name)
}

// Marshal renders a context pack as indented JSON without HTML escaping.
func Marshal(pack *workload.ContextPack) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pack); err != nil {
		return nil, fmt.Errorf("failed to encode context pack: %w", err)
	}
	return buf.Bytes(), nil
}

// Write writes the context pack to path, creating parent directories.
func Write(path string, pack *workload.ContextPack) error {
	data, err := Marshal(pack)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write context pack: %w", err)
	}
	return nil
}
