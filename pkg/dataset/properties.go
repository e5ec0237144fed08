package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Source reports where a resolved property value came from.
type Source int

const (
	SourceNone Source = iota
	SourceLocal
	SourceInherited
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceInherited:
		return "inherited"
	default:
		return "-"
	}
}

// LocalProperties returns the dataset's locally stored key/value pairs,
// seeded with its computed built-in attributes. A missing properties
// directory means no local properties.
func LocalProperties(ds Dataset) map[string]string {
	attrs := ds.BaseAttrs()

	entries, err := os.ReadDir(ds.PropertiesPath())
	if err != nil {
		return attrs
	}
	for _, e := range entries {
		val, err := os.ReadFile(filepath.Join(ds.PropertiesPath(), e.Name()))
		if err != nil {
			// Property removed while listing; treat as absent.
			continue
		}
		attrs[e.Name()] = string(val)
	}
	return attrs
}

// InheritedProperties computes the dataset's inherited key/value pairs by
// walking ancestors nearest-first. A key set locally on the dataset always
// shadows inheritance; among ancestors, the nearest definition wins. Only
// ancestors' local properties are consulted.
func InheritedProperties(ds Dataset) map[string]string {
	local := LocalProperties(ds)

	attrs := make(map[string]string)
	for parent := ds.Parent(); parent != nil; parent = parent.Parent() {
		for key, val := range LocalProperties(parent) {
			if _, ok := attrs[key]; ok {
				continue
			}
			if _, ok := local[key]; ok {
				continue
			}
			attrs[key] = val
		}
	}
	return attrs
}

// SetLocalProperty persists a local property on the dataset. Keys may not
// contain a path separator.
func SetLocalProperty(ds Dataset, key, value string) error {
	if strings.Contains(key, "/") {
		return Errf(CodeInvalidPropertyKey, key, "invalid property")
	}
	if err := os.MkdirAll(ds.PropertiesPath(), 0o755); err != nil {
		return errors.Wrapf(err, "create properties for %s", ds.Name())
	}
	path := filepath.Join(ds.PropertiesPath(), key)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return errors.Wrapf(err, "set property %s on %s", key, ds.Name())
	}
	return nil
}

// RemoveLocalProperty removes a locally stored property and reports whether
// a removal happened. An absent or inherited property is a no-op, not an
// error; built-in computed attributes are not stored and cannot be removed.
func RemoveLocalProperty(ds Dataset, key string) (bool, error) {
	err := os.Remove(filepath.Join(ds.PropertiesPath(), key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "remove property %s from %s", key, ds.Name())
}

// Property resolves a single key, checking local properties first and
// falling back to inheritance.
func Property(ds Dataset, key string) (string, Source) {
	if val, ok := LocalProperties(ds)[key]; ok {
		return val, SourceLocal
	}
	if val, ok := InheritedProperties(ds)[key]; ok {
		return val, SourceInherited
	}
	return "", SourceNone
}
