package resolve

// SequenceFolderResolution names the engine folder grouping for one
// sequence number.
type SequenceFolderResolution struct {
	ParentFolder string
	ShotCode     string
	IsFallback   bool
}

const (
	fallbackShotCode     = "UNK"
	fallbackFolderSuffix = "_Unknown"
)

// ParentSequenceKey rounds a sequence number down to its decade key: the
// first three digits of the zero-padded four-digit value plus a literal
// zero.
func ParentSequenceKey(sequence string) string {
	seq := sequence
	for len(seq) < 4 {
		seq = "0" + seq
	}
	return seq[:3] + "0"
}

// ResolveSequenceFolder maps a sequence number to its parent folder and
// shot code. Sequences without a table entry get a synthesized fallback
// folder so output paths are always constructible; this function has no
// failure case.
func (r *Resolver) ResolveSequenceFolder(sequence string) SequenceFolderResolution {
	key := ParentSequenceKey(sequence)
	if entry, ok := r.tables.Sequences[key]; ok {
		return SequenceFolderResolution{
			ParentFolder: entry.Folder,
			ShotCode:     entry.ShotCode,
		}
	}
	return SequenceFolderResolution{
		ParentFolder: key + fallbackFolderSuffix,
		ShotCode:     fallbackShotCode,
		IsFallback:   true,
	}
}
