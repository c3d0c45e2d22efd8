// Package resolve maps shot names to engine asset placements using the
// injected mapping tables: performer identities, skeletal meshes, and
// sequence folders.
package resolve

import (
	"path"

	"github.com/slateflow/slateflow-agent/internal/mappings"
	"github.com/slateflow/slateflow-agent/internal/shotname"
)

// Resolver answers identity and sequence-folder lookups against one
// immutable table snapshot. Construct a fresh Resolver to pick up
// reloaded tables. Resolvers hold no mutable state and are safe for
// concurrent use.
type Resolver struct {
	tables     *mappings.Tables
	importRoot string
}

// NewResolver builds a Resolver over a table snapshot. importRoot is the
// engine content path resolved takes are placed under.
func NewResolver(tables *mappings.Tables, importRoot string) *Resolver {
	return &Resolver{tables: tables, importRoot: importRoot}
}

// Tables returns the table snapshot this resolver reads.
func (r *Resolver) Tables() *mappings.Tables {
	return r.tables
}

// Resolution is the full per-take outcome: the parsed shot fields plus
// the identity and folder placements derived from them.
type Resolution struct {
	Name     shotname.ParsedName
	Identity IdentityResolution
	Folder   SequenceFolderResolution

	// AssetName is the canonical subtake-stripped asset name.
	AssetName string
	// TargetFolder is the engine folder the performance asset lands in.
	TargetFolder string
	// TargetPath is the full engine object path of the performance asset.
	TargetPath string
}

// Resolve runs a raw asset name through the whole chain: parse the shot
// name, resolve the character's identity and mesh, place the sequence
// folder, and build target paths. Failures come back as
// *shotname.ParseError or *NotFoundError; both are per-take conditions a
// batch caller records and moves past.
func (r *Resolver) Resolve(raw string) (*Resolution, error) {
	parsed, err := shotname.Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.ResolveParsed(parsed)
}

// ResolveParsed resolves placements for an already-parsed shot name.
// Callers that parse up front to record shot fields use this to avoid a
// second parse.
func (r *Resolver) ResolveParsed(parsed shotname.ParsedName) (*Resolution, error) {
	identity, err := r.ResolveIdentity(parsed.CharacterKey())
	if err != nil {
		return nil, err
	}

	folder := r.ResolveSequenceFolder(parsed.Sequence)

	assetName := parsed.AssetName()
	targetFolder := path.Join(
		r.importRoot,
		folder.ParentFolder,
		folder.ShotCode+"_"+parsed.Sequence,
		"S"+parsed.Slate,
	)

	return &Resolution{
		Name:         parsed,
		Identity:     identity,
		Folder:       folder,
		AssetName:    assetName,
		TargetFolder: targetFolder,
		TargetPath:   targetFolder + "/" + assetName + "." + assetName,
	}, nil
}
