// Package mappings loads and validates the studio mapping tables the
// resolvers run against: character/actor identity maps, skeletal mesh
// maps, legacy-actor membership, and sequence folder assignments.
package mappings

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var embeddedTables []byte

// EmbeddedOrigin is the Origin value for tables loaded from the built-in
// defaults rather than a file.
const EmbeddedOrigin = "embedded"

// SequenceEntry names the engine folder and three-letter shot code for one
// parent-sequence key.
type SequenceEntry struct {
	Folder   string `yaml:"folder"`
	ShotCode string `yaml:"shot_code"`
}

// Tables is the normalized, read-only mapping set injected into the
// resolvers. Lookup keys are lower-cased on load; identity and mesh asset
// names keep their original casing. A Tables value is never mutated after
// load, so it is safe to share across goroutines.
type Tables struct {
	LegacyMHIDPath    string
	MetaHumanBasePath string
	MHID              map[string]string
	SkeletalMesh      map[string]string
	ActorCharacter    map[string]string
	LegacyActors      map[string]struct{}
	Sequences         map[string]SequenceEntry

	Origin   string
	LoadedAt time.Time
}

// fileSchema is the YAML shape of a mapping tables file.
type fileSchema struct {
	LegacyMHIDPath    string                   `yaml:"legacy_mhid_path"`
	MetaHumanBasePath string                   `yaml:"metahuman_base_path"`
	MHID              map[string]string        `yaml:"mhid"`
	SkeletalMesh      map[string]string        `yaml:"skeletal_mesh"`
	ActorCharacter    map[string]string        `yaml:"actor_character"`
	LegacyActors      []string                 `yaml:"legacy_actors"`
	Sequences         map[string]SequenceEntry `yaml:"sequences"`
}

// Load reads and validates a mapping tables file.
func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping tables: %w", err)
	}
	return Parse(data, path)
}

// LoadEmbedded parses the built-in default tables.
func LoadEmbedded() (*Tables, error) {
	return Parse(embeddedTables, EmbeddedOrigin)
}

// Parse unmarshals, normalizes, and validates mapping table data. origin
// is recorded on the result for status reporting.
func Parse(data []byte, origin string) (*Tables, error) {
	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal mapping tables: %w", err)
	}

	t := &Tables{
		LegacyMHIDPath:    strings.TrimSpace(f.LegacyMHIDPath),
		MetaHumanBasePath: strings.TrimSpace(f.MetaHumanBasePath),
		MHID:              normalizeKeys(f.MHID),
		SkeletalMesh:      normalizeKeys(f.SkeletalMesh),
		ActorCharacter:    normalizePairs(f.ActorCharacter),
		LegacyActors:      normalizeSet(f.LegacyActors),
		Sequences:         f.Sequences,
		Origin:            origin,
		LoadedAt:          time.Now().UTC(),
	}
	if t.Sequences == nil {
		t.Sequences = map[string]SequenceEntry{}
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("validate mapping tables: %w", err)
	}
	return t, nil
}

// IsLegacyActor reports whether key belongs to the legacy actor set.
// key must already be normalized (lower-cased, trimmed).
func (t *Tables) IsLegacyActor(key string) bool {
	_, ok := t.LegacyActors[key]
	return ok
}

// KnownIdentityKeys returns the sorted set of keys the identity tables
// answer for, used in not-found diagnostics.
func (t *Tables) KnownIdentityKeys() []string {
	keys := make([]string, 0, len(t.MHID))
	for k := range t.MHID {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalizeKey(k)] = strings.TrimSpace(v)
	}
	return out
}

func normalizePairs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalizeKey(k)] = normalizeKey(v)
	}
	return out
}

func normalizeSet(list []string) map[string]struct{} {
	out := make(map[string]struct{}, len(list))
	for _, v := range list {
		out[normalizeKey(v)] = struct{}{}
	}
	return out
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Parent-sequence keys are four digits ending in zero; shot codes are
// three capital letters.
var (
	reSequenceKey = regexp.MustCompile(`^\d{3}0$`)
	reShotCode    = regexp.MustCompile(`^[A-Z]{3}$`)
)

func (t *Tables) validate() error {
	if t.LegacyMHIDPath == "" {
		return fmt.Errorf("legacy_mhid_path is required")
	}
	if t.MetaHumanBasePath == "" {
		return fmt.Errorf("metahuman_base_path is required")
	}
	if len(t.MHID) == 0 {
		return fmt.Errorf("mhid table is empty")
	}

	for _, k := range sortedKeys(t.MHID) {
		if t.MHID[k] == "" {
			return fmt.Errorf("mhid entry %q has an empty identity name", k)
		}
		if _, ok := t.SkeletalMesh[k]; !ok {
			return fmt.Errorf("mhid entry %q has no skeletal_mesh entry", k)
		}
	}
	for _, k := range sortedKeys(t.SkeletalMesh) {
		if t.SkeletalMesh[k] == "" {
			return fmt.Errorf("skeletal_mesh entry %q has an empty mesh name", k)
		}
		if _, ok := t.MHID[k]; !ok {
			return fmt.Errorf("skeletal_mesh entry %q has no mhid entry", k)
		}
	}

	for _, k := range sortedKeys(t.ActorCharacter) {
		v := t.ActorCharacter[k]
		if v == "" {
			return fmt.Errorf("actor_character entry %q has an empty value", k)
		}
		if back, ok := t.ActorCharacter[v]; !ok || back != k {
			return fmt.Errorf("actor_character entry %q -> %q has no reverse entry", k, v)
		}
	}

	legacy := make([]string, 0, len(t.LegacyActors))
	for k := range t.LegacyActors {
		legacy = append(legacy, k)
	}
	sort.Strings(legacy)
	for _, k := range legacy {
		if _, ok := t.MHID[k]; !ok {
			return fmt.Errorf("legacy actor %q has no mhid entry", k)
		}
	}

	seqKeys := make([]string, 0, len(t.Sequences))
	for k := range t.Sequences {
		seqKeys = append(seqKeys, k)
	}
	sort.Strings(seqKeys)
	for _, k := range seqKeys {
		entry := t.Sequences[k]
		if !reSequenceKey.MatchString(k) {
			return fmt.Errorf("sequence key %q is not a four-digit decade key", k)
		}
		if strings.TrimSpace(entry.Folder) == "" {
			return fmt.Errorf("sequence %q has an empty folder", k)
		}
		if !reShotCode.MatchString(entry.ShotCode) {
			return fmt.Errorf("sequence %q shot code %q is not three capital letters", k, entry.ShotCode)
		}
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
