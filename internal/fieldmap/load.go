package fieldmap

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed mapping.yaml
var defaultYAML []byte

var defaultMapping = sync.OnceValue(func() *Mapping {
	m, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic("fieldmap: embedded mapping: " + err.Error())
	}
	return m
})

// Default returns the mapping shipped with the binary. It is parsed once and
// shared; callers must not modify it.
func Default() *Mapping {
	return defaultMapping()
}

// DefaultYAML returns the source of the shipped mapping.
func DefaultYAML() []byte {
	return bytes.Clone(defaultYAML)
}

// LoadFile reads and validates a mapping file.
func LoadFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping: %w", err)
	}
	defer func() { _ = f.Close() }()

	m, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Load reads and validates a YAML mapping.
//
// The document is parsed into a generic tree first and then decoded into the
// typed structs, so that a field entry may be written either as a bare name
// or as a {field, when|matches} map. Unknown keys are rejected.
func Load(r io.Reader) (*Mapping, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newConfigError("", err, "parse yaml: %v", err)
	}
	if len(doc) == 0 {
		return nil, newConfigError("", ErrMissingScope, "mapping document is empty")
	}

	m := &Mapping{
		DateRange: DateRange{Path: DefaultDatePath, Field: DefaultDateField},
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.DecodeHookFuncType(entryHook),
		ErrorUnused: true,
		Result:      m,
		TagName:     "yaml",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, newConfigError("", err, "decode: %v", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

var entryType = reflect.TypeOf(Entry{})

// entryHook lets a bare string stand for a plain field entry.
func entryHook(from, to reflect.Type, data any) (any, error) {
	if to != entryType || from.Kind() != reflect.String {
		return data, nil
	}
	return map[string]any{"field": data}, nil
}

// Marshal renders m as YAML in the same layout Load accepts.
func Marshal(m *Mapping) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
