// Package registry aggregates parsed .strings entries across a project, keyed
// by string table, identifier and locale, and reports gaps between locales.
package registry

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"dotstrings/internal/interpolation"
	"dotstrings/internal/parser"
)

// Key identifies a string independent of locale. Identifiers are only unique
// within one table (Localizable, InfoPlist, Main, ...).
type Key struct {
	Table      string
	Identifier string
}

func (k Key) String() string { return k.Table + ":" + k.Identifier }

// Mismatch is a translation whose format directives differ from the base value.
type Mismatch struct {
	Key        Key
	Locale     string
	Base       string
	Translated string
}

// Report summarizes a registry against a base locale.
type Report struct {
	BaseLocale string
	Locales    []string
	Keys       int
	// Missing lists, per locale, keys present in the base locale but not translated.
	Missing    map[string][]Key
	Mismatches []Mismatch
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	strings map[Key]map[string]parser.Entry
	locales map[string]struct{}
}

func New() *Registry {
	return &Registry{
		strings: make(map[Key]map[string]parser.Entry),
		locales: make(map[string]struct{}),
	}
}

// TableName derives the string table from a resource path
// ("fr.lproj/Localizable.strings" -> "Localizable").
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Add records entries parsed from one file. An entry replacing an earlier one
// with the same key and locale is counted in the returned value.
func (r *Registry) Add(locale string, entries []parser.Entry) (replaced int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locales[locale] = struct{}{}
	for _, e := range entries {
		key := Key{Table: TableName(e.Source), Identifier: e.Identifier}
		byLocale, ok := r.strings[key]
		if !ok {
			byLocale = make(map[string]parser.Entry)
			r.strings[key] = byLocale
		}
		if _, dup := byLocale[locale]; dup {
			replaced++
		}
		byLocale[locale] = e
	}
	return replaced
}

// Len returns the number of distinct keys.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.strings)
}

// Locales returns every locale seen, sorted.
func (r *Registry) Locales() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	locales := make([]string, 0, len(r.locales))
	for l := range r.locales {
		locales = append(locales, l)
	}
	slices.Sort(locales)
	return locales
}

// Keys returns every key, sorted by table then identifier.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedKeys()
}

// Lookup returns the translations of key by locale.
func (r *Registry) Lookup(key Key) map[string]parser.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]parser.Entry, len(r.strings[key]))
	for locale, e := range r.strings[key] {
		out[locale] = e
	}
	return out
}

// Report compares every locale against base.
func (r *Registry) Report(base string) Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := Report{
		BaseLocale: base,
		Keys:       len(r.strings),
		Missing:    make(map[string][]Key),
	}
	for l := range r.locales {
		report.Locales = append(report.Locales, l)
	}
	slices.Sort(report.Locales)

	for _, key := range r.sortedKeys() {
		byLocale := r.strings[key]
		baseEntry, ok := byLocale[base]
		if !ok {
			continue
		}
		for _, locale := range report.Locales {
			if locale == base {
				continue
			}
			translated, ok := byLocale[locale]
			if !ok {
				report.Missing[locale] = append(report.Missing[locale], key)
				continue
			}
			if !interpolation.Compatible(baseEntry.Value, translated.Value) {
				report.Mismatches = append(report.Mismatches, Mismatch{
					Key:        key,
					Locale:     locale,
					Base:       baseEntry.Value,
					Translated: translated.Value,
				})
			}
		}
	}
	return report
}

func (r *Registry) sortedKeys() []Key {
	keys := make([]Key, 0, len(r.strings))
	for k := range r.strings {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		if c := strings.Compare(a.Table, b.Table); c != 0 {
			return c
		}
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return keys
}
