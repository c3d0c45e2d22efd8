package manifest

type Request struct {
	SourceID  string `json:"source_id"`
	Title     string `json:"title,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

// Entry describes one resolved take for the engine-side importer: where
// the capture media lives on disk and where the asset lands in the
// project tree.
type Entry struct {
	TakeID            string   `json:"take_id"`
	ShotName          string   `json:"shot_name"`
	MediaPath         string   `json:"media_path"`
	AssetName         string   `json:"asset_name"`
	TargetFolder      string   `json:"target_folder"`
	TargetPath        string   `json:"target_path"`
	IdentityAssetPath string   `json:"identity_asset_path"`
	SkeletalMeshPath  string   `json:"skeletal_mesh_path"`
	IsLegacy          bool     `json:"is_legacy"`
	Slate             string   `json:"slate"`
	Sequence          string   `json:"sequence"`
	TakeNumber        string   `json:"take_number"`
	Subtake           string   `json:"subtake,omitempty"`
	Actors            []string `json:"actors"`
}

type SkippedEntry struct {
	TakeID   string `json:"take_id"`
	ShotName string `json:"shot_name"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

type Manifest struct {
	SchemaVersion string         `json:"schema_version"`
	Title         string         `json:"title"`
	GeneratedAt   string         `json:"generated_at"`
	ImportRoot    string         `json:"import_root"`
	Entries       []Entry        `json:"entries"`
	Skipped       []SkippedEntry `json:"skipped,omitempty"`
}

type Response struct {
	Status       string `json:"status"`
	OutputPath   string `json:"output_path"`
	EntryCount   int    `json:"entry_count"`
	SkippedCount int    `json:"skipped_count"`
}
