package chat

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

//go:embed fallback.yaml
var defaultFallbackYAML []byte

// lastResort is only reachable through a Table that was never constructed.
const lastResort = "I'm having trouble answering right now. Please try again in a moment."

// Table maps (topic, language) to canned reply text. It is immutable once
// built and may be shared between goroutines.
type Table struct {
	entries map[Topic]map[string]string
}

// NewTable builds a table from entries. Only (general, en) is required;
// every other pair may be missing and is resolved through Lookup's chain.
func NewTable(entries map[Topic]map[string]string) (*Table, error) {
	t := &Table{entries: make(map[Topic]map[string]string, len(entries))}
	for topic, langs := range entries {
		if !topic.Valid() {
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
		copied := make(map[string]string, len(langs))
		for lang, text := range langs {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			copied[strings.ToLower(strings.TrimSpace(lang))] = text
		}
		t.entries[topic] = copied
	}

	if t.entries[TopicGeneral][DefaultLanguage] == "" {
		return nil, fmt.Errorf("fallback table needs a %s/%s entry", TopicGeneral, DefaultLanguage)
	}
	return t, nil
}

// ParseTable decodes a YAML document of the form topic -> language -> text
// and requires an English entry for every topic.
func ParseTable(data []byte) (*Table, error) {
	raw, err := decodeEntries(data)
	if err != nil {
		return nil, err
	}
	return ParseTableEntries(raw)
}

// DefaultTable returns the embedded table.
func DefaultTable() (*Table, error) {
	return ParseTable(defaultFallbackYAML)
}

// LoadTable returns the embedded table with entries from the YAML file at
// path merged over it. An empty path yields the embedded table.
func LoadTable(path string) (*Table, error) {
	base, err := decodeEntries(defaultFallbackYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded fallback table: %w", err)
	}
	if path == "" {
		return ParseTableEntries(base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fallback table: %w", err)
	}
	overrides, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for topic, langs := range overrides {
		if base[topic] == nil {
			base[topic] = make(map[string]string, len(langs))
		}
		for lang, text := range langs {
			base[topic][lang] = text
		}
	}
	return ParseTableEntries(base)
}

// ParseTableEntries is ParseTable for already decoded entries.
func ParseTableEntries(entries map[Topic]map[string]string) (*Table, error) {
	t, err := NewTable(entries)
	if err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the reply for (topic, lang), falling back to (topic, en)
// and then (general, en).
func (t *Table) Lookup(topic Topic, lang string) string {
	if t == nil {
		return lastResort
	}
	if text := t.entries[topic][lang]; text != "" {
		return text
	}
	if text := t.entries[topic][DefaultLanguage]; text != "" {
		return text
	}
	if text := t.entries[TopicGeneral][DefaultLanguage]; text != "" {
		return text
	}
	return lastResort
}

// Languages lists every language code present in the table, sorted.
func (t *Table) Languages() []string {
	seen := make(map[string]struct{})
	for _, langs := range t.entries {
		for lang := range langs {
			seen[lang] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (t *Table) validate() error {
	var missing []string
	for _, topic := range Topics {
		if t.entries[topic][DefaultLanguage] == "" {
			missing = append(missing, string(topic))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("fallback table missing %s entries for: %s", DefaultLanguage, strings.Join(missing, ", "))
	}
	return nil
}

func decodeEntries(data []byte) (map[Topic]map[string]string, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid fallback table: %w", err)
	}
	entries := make(map[Topic]map[string]string, len(raw))
	for topic, langs := range raw {
		normalized := make(map[string]string, len(langs))
		for lang, text := range langs {
			normalized[strings.ToLower(strings.TrimSpace(lang))] = text
		}
		entries[Topic(strings.ToLower(strings.TrimSpace(topic)))] = normalized
	}
	return entries, nil
}
