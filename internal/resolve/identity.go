package resolve

import (
	"fmt"
	"path"
	"strings"
)

// IdentityResolution holds the engine asset paths resolved for one
// character or actor name.
type IdentityResolution struct {
	IdentityAssetPath string
	SkeletalMeshPath  string
	IsLegacy          bool
}

// NotFoundError reports a name with no identity mapping, either directly
// or through the actor/character alias table. Known carries every key the
// tables answer for, so operators can fix the mapping file instead of
// guessing at spelling.
type NotFoundError struct {
	Key   string
	Known []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no identity mapping for %q (known keys: %s)",
		e.Key, strings.Join(e.Known, ", "))
}

// ResolveIdentity looks up the identity and skeletal mesh assets for a
// character or actor name. Lookup is case-insensitive. A direct miss is
// retried through the actor/character alias table before giving up. The
// legacy actor set decides which path prefix the assets resolve under.
func (r *Resolver) ResolveIdentity(name string) (IdentityResolution, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	resolvedKey, identityName, ok := r.lookup(r.tables.MHID, key)
	if !ok {
		return IdentityResolution{}, &NotFoundError{Key: key, Known: r.tables.KnownIdentityKeys()}
	}

	_, meshName, ok := r.lookup(r.tables.SkeletalMesh, key)
	if !ok {
		return IdentityResolution{}, &NotFoundError{Key: key, Known: r.tables.KnownIdentityKeys()}
	}

	legacy := r.tables.IsLegacyActor(resolvedKey)
	prefix := r.tables.MetaHumanBasePath
	if legacy {
		prefix = r.tables.LegacyMHIDPath
	}

	return IdentityResolution{
		IdentityAssetPath: assetObjectPath(prefix, identityName),
		SkeletalMeshPath:  assetObjectPath(prefix, meshName),
		IsLegacy:          legacy,
	}, nil
}

// lookup finds key in table, falling back to one hop through the
// actor/character alias table. It returns the key that finally matched.
func (r *Resolver) lookup(table map[string]string, key string) (string, string, bool) {
	if v, ok := table[key]; ok {
		return key, v, true
	}
	if alias, ok := r.tables.ActorCharacter[key]; ok {
		if v, ok := table[alias]; ok {
			return alias, v, true
		}
	}
	return "", "", false
}

// assetObjectPath builds a full engine object path, package path plus
// asset name: /Game/Dir/Name.Name
func assetObjectPath(prefix, name string) string {
	return path.Join(prefix, name) + "." + name
}
