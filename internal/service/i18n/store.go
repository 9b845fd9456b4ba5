// Package i18n serves the static per-language string tables. Lookups never
// fail: a missing table or key falls back to the default language and then
// to the key itself.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// DefaultLanguage is used when no default is configured.
const DefaultLanguage = "English"

// Language describes one loaded table.
type Language struct {
	Label string `json:"label" yaml:"label"`
	Code  string `json:"code" yaml:"code"`
}

type table struct {
	Language `yaml:",inline"`
	Strings  map[string]string `yaml:"strings"`
}

// Store holds the loaded tables. It is read-only after Load.
type Store struct {
	tables       map[string]*table // keyed by lower-cased label
	byCode       map[string]string // code -> label key
	languages    []Language
	defaultLabel string
	matcher      language.Matcher
	matchLabels  []string
}

// Load reads the embedded tables.
func Load(defaultLabel string) (*Store, error) {
	return LoadFS(locales, "locales", defaultLabel)
}

// LoadFS reads every *.yaml table under dir.
func LoadFS(fsys fs.FS, dir, defaultLabel string) (*Store, error) {
	if defaultLabel == "" {
		defaultLabel = DefaultLanguage
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("i18n: list tables: %w", err)
	}

	s := &Store{
		tables: make(map[string]*table),
		byCode: make(map[string]string),
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", f, err)
		}
		var t table
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("i18n: decode %s: %w", f, err)
		}
		if t.Label == "" {
			return nil, fmt.Errorf("i18n: %s has no label", f)
		}
		key := strings.ToLower(t.Label)
		if _, dup := s.tables[key]; dup {
			return nil, fmt.Errorf("i18n: duplicate table %q", t.Label)
		}
		if t.Strings == nil {
			t.Strings = map[string]string{}
		}
		s.tables[key] = &t
		if t.Code != "" {
			s.byCode[strings.ToLower(t.Code)] = key
		}
		s.languages = append(s.languages, t.Language)
	}

	def, ok := s.tables[strings.ToLower(defaultLabel)]
	if !ok {
		return nil, fmt.Errorf("i18n: default language %q not loaded", defaultLabel)
	}
	s.defaultLabel = def.Label

	sort.Slice(s.languages, func(i, j int) bool { return s.languages[i].Label < s.languages[j].Label })
	s.buildMatcher(def)
	return s, nil
}

// The default language goes first: the matcher falls back to index 0.
func (s *Store) buildMatcher(def *table) {
	var tags []language.Tag
	add := func(t *table) {
		tag, err := language.Parse(t.Code)
		if err != nil {
			return
		}
		tags = append(tags, tag)
		s.matchLabels = append(s.matchLabels, t.Label)
	}
	add(def)
	for _, l := range s.languages {
		if l.Label != def.Label {
			add(s.tables[strings.ToLower(l.Label)])
		}
	}
	s.matcher = language.NewMatcher(tags)
}

// Default returns the default language label.
func (s *Store) Default() string {
	return s.defaultLabel
}

// Languages lists the loaded languages sorted by label.
func (s *Store) Languages() []Language {
	out := make([]Language, len(s.languages))
	copy(out, s.languages)
	return out
}

// Resolve maps a label or language code, in any case, to a loaded label.
// Unknown values resolve to the default.
func (s *Store) Resolve(label string) string {
	if t := s.find(label); t != nil {
		return t.Label
	}
	return s.defaultLabel
}

// Known reports whether label names a loaded table.
func (s *Store) Known(label string) bool {
	return s.find(label) != nil
}

func (s *Store) find(label string) *table {
	key := strings.ToLower(strings.TrimSpace(label))
	if t, ok := s.tables[key]; ok {
		return t
	}
	if k, ok := s.byCode[key]; ok {
		return s.tables[k]
	}
	return nil
}

// Lookup returns the string for key in label's table, falling back to the
// default table and then to key.
func (s *Store) Lookup(label, key string) string {
	if t := s.find(label); t != nil {
		if v, ok := t.Strings[key]; ok {
			return v
		}
	}
	if v, ok := s.tables[strings.ToLower(s.defaultLabel)].Strings[key]; ok {
		return v
	}
	return key
}

// Table returns label's strings merged over the default table.
func (s *Store) Table(label string) map[string]string {
	def := s.tables[strings.ToLower(s.defaultLabel)]
	out := make(map[string]string, len(def.Strings))
	for k, v := range def.Strings {
		out[k] = v
	}
	if t := s.find(label); t != nil {
		for k, v := range t.Strings {
			out[k] = v
		}
	}
	return out
}

// Match picks the loaded language that best fits an Accept-Language header.
func (s *Store) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return s.defaultLabel
	}
	_, idx, conf := s.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(s.matchLabels) {
		return s.defaultLabel
	}
	return s.matchLabels[idx]
}
