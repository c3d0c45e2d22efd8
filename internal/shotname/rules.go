package shotname

import (
	"regexp"
	"strings"
)

// PerformanceSuffix is appended by the capture export and stripped before
// pattern matching.
const PerformanceSuffix = "_Performance"

// Shot names are underscore-delimited: a character token, a literal S plus
// the slate digits, the sequence digits, one to four actor tokens, the take
// digits, and an optional subtake. Actor tokens must start with a letter;
// an all-digit trailing segment is always a take or subtake, which keeps
// the four patterns mutually exclusive.
var (
	reQuad = regexp.MustCompile(
		`^([A-Za-z0-9]+)_S(\d+)_(\d+)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_(\d+)(?:_(\d+))?$`)

	reTriple = regexp.MustCompile(
		`^([A-Za-z0-9]+)_S(\d+)_(\d+)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_(\d+)(?:_(\d+))?$`)

	reDual = regexp.MustCompile(
		`^([A-Za-z0-9]+)_S(\d+)_(\d+)_([A-Za-z][^_]*)_([A-Za-z][^_]*)_(\d+)(?:_(\d+))?$`)

	reSingle = regexp.MustCompile(
		`^([A-Za-z0-9]+)_S(\d+)_(\d+)_([A-Za-z][^_]*)_(\d+)(?:_(\d+))?$`)
)

// parseRule pairs a compiled pattern with its actor slot count. Rules are
// evaluated in order by [Parse]; most actor slots first, first full match
// wins.
type parseRule struct {
	name       string
	pattern    *regexp.Regexp
	actorSlots int
}

var rules = []parseRule{
	{"quad", reQuad, 4},
	{"triple", reTriple, 3},
	{"dual", reDual, 2},
	{"single", reSingle, 1},
}

// Parse parses a raw performance asset name into its shot fields. The
// _Performance suffix and trailing underscores are stripped first. A name
// matching no pattern returns a *ParseError; Parse never panics on
// malformed input.
func Parse(raw string) (ParsedName, error) {
	base := strings.TrimSuffix(raw, PerformanceSuffix)
	base = strings.TrimRight(base, "_")

	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		return extract(m, rule.actorSlots), nil
	}
	return ParsedName{}, &ParseError{Raw: raw}
}

// extract builds a ParsedName from submatches. Group layout is identical
// across the four rules: 1 character, 2 slate, 3 sequence, then actorSlots
// actor groups, take, optional subtake.
func extract(matches []string, actorSlots int) ParsedName {
	actors := make([]string, actorSlots)
	copy(actors, matches[4:4+actorSlots])

	return ParsedName{
		Character:  matches[1],
		Slate:      zeroPad(matches[2], 4),
		Sequence:   zeroPad(matches[3], 4),
		Take:       zeroPad(matches[4+actorSlots], 3),
		Subtake:    matches[5+actorSlots],
		Actors:     actors,
		ActorCount: actorCountFor(actorSlots),
	}
}

func zeroPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
