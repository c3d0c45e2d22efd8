// Package shotname parses performance-take asset names into structured
// shot fields (character, slate, sequence, actors, take, subtake).
package shotname

import (
	"fmt"
	"strings"
)

// ActorCount classifies how many actor slots a shot name carries.
type ActorCount string

const (
	ActorCountSingle ActorCount = "single"
	ActorCountDual   ActorCount = "dual"
	ActorCountTriple ActorCount = "triple"
	ActorCountQuad   ActorCount = "quad"
)

func actorCountFor(n int) ActorCount {
	switch n {
	case 4:
		return ActorCountQuad
	case 3:
		return ActorCountTriple
	case 2:
		return ActorCountDual
	default:
		return ActorCountSingle
	}
}

// ParsedName holds the structured result of shot name parsing. Values are
// normalized (slate and sequence zero-padded to 4 digits, take to 3) and
// treated as immutable once constructed. Character keeps its original
// casing for display; lookups go through CharacterKey.
type ParsedName struct {
	Character  string
	Slate      string
	Sequence   string
	Take       string
	Subtake    string
	Actors     []string
	ActorCount ActorCount
}

// CharacterKey returns the lookup form of the character name.
func (p ParsedName) CharacterKey() string {
	return strings.ToLower(strings.TrimSpace(p.Character))
}

// DisplayTake returns the take shown to users. Subtakes never appear in
// display takes.
func (p ParsedName) DisplayTake() string {
	return p.Take
}

// AssetName rebuilds the canonical asset name from the normalized fields,
// without the subtake or the performance suffix.
func (p ParsedName) AssetName() string {
	parts := make([]string, 0, len(p.Actors)+4)
	parts = append(parts, p.Character, "S"+p.Slate, p.Sequence)
	parts = append(parts, p.Actors...)
	parts = append(parts, p.Take)
	return strings.Join(parts, "_")
}

// ParseError reports a raw name that matched none of the shot name
// patterns after preprocessing. It carries the original string so
// operators can see exactly what was rejected.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("shot name %q does not match any known pattern", e.Raw)
}
