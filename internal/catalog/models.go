package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Source struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	DriveLabel  string    `json:"drive_label,omitempty"`
	Present     bool      `json:"present"`
	CreatedAt   time.Time `json:"created_at"`
}

// Take is one discovered capture file. Stem is the filename without its
// extension, which is the raw shot name the resolver parses.
type Take struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Stem        string    `json:"stem"`
	Size        int64     `json:"size"`
	Mtime       time.Time `json:"mtime"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	JobTypeScan    = "scan"
	JobTypeResolve = "resolve"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	SourceID  string    `json:"source_id,omitempty"`
	TakeID    string    `json:"take_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// Every take in a resolve batch ends in exactly one of these.
	ResolutionStatusResolved    = "resolved"
	ResolutionStatusParseFailed = "parse_failed"
	ResolutionStatusUnmapped    = "unmapped"
)

// Resolution is the recorded outcome of running one take through the
// resolver. Failed takes keep their row too, with the diagnostic in
// Error, so operators can see exactly what to fix.
type Resolution struct {
	ID       string `json:"id"`
	TakeID   string `json:"take_id"`
	SourceID string `json:"source_id"`
	Status   string `json:"status"`

	Character  string   `json:"character,omitempty"`
	Slate      string   `json:"slate,omitempty"`
	Sequence   string   `json:"sequence,omitempty"`
	TakeNumber string   `json:"take_number,omitempty"`
	Subtake    string   `json:"subtake,omitempty"`
	Actors     []string `json:"actors,omitempty"`
	ActorCount string   `json:"actor_count,omitempty"`

	IdentityAssetPath string `json:"identity_asset_path,omitempty"`
	SkeletalMeshPath  string `json:"skeletal_mesh_path,omitempty"`
	IsLegacy          bool   `json:"is_legacy"`

	ParentFolder string `json:"parent_folder,omitempty"`
	ShotCode     string `json:"shot_code,omitempty"`
	IsFallback   bool   `json:"is_fallback"`

	AssetName    string `json:"asset_name,omitempty"`
	TargetFolder string `json:"target_folder,omitempty"`
	TargetPath   string `json:"target_path,omitempty"`

	Error      string    `json:"error,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

type ConfigEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TakeExtensions lists the capture container formats scans pick up.
var TakeExtensions = map[string]bool{
	".mov": true,
	".mp4": true,
	".avi": true,
	".mxf": true,
}

func NewID() string {
	return uuid.NewString()
}

func IsTakeFile(filename string) bool {
	return TakeExtensions[strings.ToLower(filepath.Ext(filename))]
}

// TakeStem strips the extension from a capture filename, leaving the raw
// shot name.
func TakeStem(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
