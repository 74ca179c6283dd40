package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/maps"
)

var errReadBytes = errors.New("provider does not support ReadBytes")

// dotenvFile is a koanf.Provider over a dotenv file. Only APP_ variables are
// kept; a missing file yields no values.
type dotenvFile string

func (d dotenvFile) ReadBytes() ([]byte, error) { return nil, errReadBytes }

func (d dotenvFile) Read() (map[string]any, error) {
	vars, err := godotenv.Read(string(d))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", string(d), err)
	}
	flat := make(map[string]any, len(vars))
	for name, v := range vars {
		if key := envKey(name); key != "" && strings.TrimSpace(v) != "" {
			flat[key] = v
		}
	}
	return maps.Unflatten(flat, "."), nil
}

// valueMap is a koanf.Provider over already-typed values keyed by flat key.
type valueMap map[string]any

func (m valueMap) ReadBytes() ([]byte, error) { return nil, errReadBytes }

func (m valueMap) Read() (map[string]any, error) {
	return maps.Unflatten(map[string]any(m), "."), nil
}
