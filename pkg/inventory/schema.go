package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// ErrFileNotFound is returned by LoadFromFile when the schema file does not exist.
var ErrFileNotFound = errors.New("schema file not found")

// Schema is the top level document of a schema file.
type Schema struct {
	InventoryExtension []Extension `json:"InventoryExtension"`
}

// LoadFromFile reads a schema file and returns its extensions.
// Only the JSON structure is checked; use Validate for content.
func LoadFromFile(path string) ([]Extension, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}

	exts, err := parseSchema(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	return exts, nil
}

// Load reads a schema document from r.
func Load(r io.Reader) ([]Extension, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	return parseSchema(data)
}

func parseSchema(data []byte) ([]Extension, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return schema.InventoryExtension, nil
}
