package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (1 MiB).
var MaxInputSize = 1 << 20

// Sentinel errors for config decoding.
var (
	ErrEmptyData     = errors.New("config data is empty")
	ErrInputTooLarge = errors.New("config input exceeds maximum size")
	ErrUnknownField  = errors.New("unknown config field")
)

// decoder decodes raw config bytes into v, rejecting unknown fields.
type decoder func(data []byte, v any) error

// decoderFor picks the decoder from the file extension. Anything that is
// not .toml is read as YAML.
func decoderFor(path string) decoder {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return decodeTOML
	}
	return decodeYAML
}

func checkInput(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	return nil
}

// decodeYAML uses strict mode so typos in keys fail loudly.
func decodeYAML(data []byte, v any) error {
	if err := checkInput(data); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yaml: %w", err)
	}
	return nil
}

// decodeTOML mirrors YAML strict mode through the undecoded-keys report.
func decodeTOML(data []byte, v any) error {
	if err := checkInput(data); err != nil {
		return err
	}
	md, err := toml.Decode(string(data), v)
	if err != nil {
		return fmt.Errorf("toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("toml: %w: %s", ErrUnknownField, strings.Join(keys, ", "))
	}
	return nil
}
