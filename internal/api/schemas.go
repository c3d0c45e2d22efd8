package api

import (
	"time"

	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/mappings"
	"github.com/slateflow/slateflow-agent/internal/resolve"
	"github.com/slateflow/slateflow-agent/internal/shotname"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string           `json:"state"`
	LastError    string           `json:"last_error,omitempty"`
	SourcesCount int              `json:"sources_count"`
	TakesCount   int              `json:"takes_count"`
	TotalBytes   int64            `json:"total_bytes"`
	TotalSize    string           `json:"total_size"`
	JobsRunning  int              `json:"jobs_running"`
	ActiveJob    *JobResponse     `json:"active_job,omitempty"`
	Resolutions  *ResolutionStats `json:"resolutions,omitempty"`
	Mappings     *MappingsInfo    `json:"mappings,omitempty"`
}

type ResolutionStats struct {
	Resolved    int `json:"resolved"`
	ParseFailed int `json:"parse_failed"`
	Unmapped    int `json:"unmapped"`
}

type MappingsInfo struct {
	Origin     string `json:"origin"`
	Identities int    `json:"identities"`
	Sequences  int    `json:"sequences"`
	LoadedAt   string `json:"loaded_at,omitempty"`
}

type AddFolderRequest struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
	DriveLabel  string `json:"drive_label,omitempty"`
}

type AddFolderResponse struct {
	SourceID string `json:"source_id"`
}

type SourceResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	DriveLabel  string `json:"drive_label,omitempty"`
	Present     bool   `json:"present"`
	CreatedAt   string `json:"created_at"`
}

type SourcesResponse struct {
	Sources []SourceResponse `json:"sources"`
}

type ScanRequest struct {
	SourceID string `json:"source_id,omitempty"`
}

type ScanResponse struct {
	JobID string `json:"job_id"`
}

type ResolveRequest struct {
	SourceID string `json:"source_id,omitempty"`
}

type ResolveResponse struct {
	JobID string `json:"job_id"`
}

type PreviewRequest struct {
	Name string `json:"name"`
}

// PreviewResponse mirrors a stored resolution but is computed on the fly
// for a name that may not exist in any catalog.
type PreviewResponse struct {
	Status       string              `json:"status"`
	Parsed       *ParsedNameResponse `json:"parsed,omitempty"`
	Identity     *IdentityResponse   `json:"identity,omitempty"`
	Folder       *FolderResponse     `json:"folder,omitempty"`
	AssetName    string              `json:"asset_name,omitempty"`
	TargetFolder string              `json:"target_folder,omitempty"`
	TargetPath   string              `json:"target_path,omitempty"`
	Error        string              `json:"error,omitempty"`
}

type ParsedNameResponse struct {
	Character  string   `json:"character"`
	Slate      string   `json:"slate"`
	Sequence   string   `json:"sequence"`
	Take       string   `json:"take"`
	Subtake    string   `json:"subtake,omitempty"`
	Actors     []string `json:"actors"`
	ActorCount string   `json:"actor_count"`
}

type IdentityResponse struct {
	IdentityAssetPath string `json:"identity_asset_path"`
	SkeletalMeshPath  string `json:"skeletal_mesh_path"`
	IsLegacy          bool   `json:"is_legacy"`
}

type FolderResponse struct {
	ParentFolder string `json:"parent_folder"`
	ShotCode     string `json:"shot_code"`
	IsFallback   bool   `json:"is_fallback"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	SourceID  string `json:"source_id,omitempty"`
	TakeID    string `json:"take_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type TakeResponse struct {
	ID          string `json:"id"`
	SourceID    string `json:"source_id"`
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	Stem        string `json:"stem"`
	Size        int64  `json:"size"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
}

type TakesResponse struct {
	Takes []TakeResponse `json:"takes"`
}

type ResolutionResponse struct {
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

	Error      string `json:"error,omitempty"`
	ResolvedAt string `json:"resolved_at"`
}

type ResolutionsResponse struct {
	Resolutions []ResolutionResponse `json:"resolutions"`
}

type MappingsResponse struct {
	Origin       string   `json:"origin"`
	LoadedAt     string   `json:"loaded_at"`
	Identities   int      `json:"identities"`
	Aliases      int      `json:"aliases"`
	LegacyActors int      `json:"legacy_actors"`
	Sequences    int      `json:"sequences"`
	KnownKeys    []string `json:"known_keys"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SourceToResponse(s *catalog.Source) SourceResponse {
	return SourceResponse{
		ID:          s.ID,
		Type:        s.Type,
		Path:        s.Path,
		DisplayName: s.DisplayName,
		DriveLabel:  s.DriveLabel,
		Present:     s.Present,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		SourceID:  j.SourceID,
		TakeID:    j.TakeID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func TakeToResponse(t *catalog.Take) TakeResponse {
	return TakeResponse{
		ID:          t.ID,
		SourceID:    t.SourceID,
		Path:        t.Path,
		Filename:    t.Filename,
		Stem:        t.Stem,
		Size:        t.Size,
		Fingerprint: t.Fingerprint,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
	}
}

func ResolutionToResponse(r *catalog.Resolution) ResolutionResponse {
	return ResolutionResponse{
		TakeID:            r.TakeID,
		SourceID:          r.SourceID,
		Status:            r.Status,
		Character:         r.Character,
		Slate:             r.Slate,
		Sequence:          r.Sequence,
		TakeNumber:        r.TakeNumber,
		Subtake:           r.Subtake,
		Actors:            r.Actors,
		ActorCount:        r.ActorCount,
		IdentityAssetPath: r.IdentityAssetPath,
		SkeletalMeshPath:  r.SkeletalMeshPath,
		IsLegacy:          r.IsLegacy,
		ParentFolder:      r.ParentFolder,
		ShotCode:          r.ShotCode,
		IsFallback:        r.IsFallback,
		AssetName:         r.AssetName,
		TargetFolder:      r.TargetFolder,
		TargetPath:        r.TargetPath,
		Error:             r.Error,
		ResolvedAt:        r.ResolvedAt.Format(time.RFC3339),
	}
}

func ParsedNameToResponse(p shotname.ParsedName) *ParsedNameResponse {
	return &ParsedNameResponse{
		Character:  p.Character,
		Slate:      p.Slate,
		Sequence:   p.Sequence,
		Take:       p.Take,
		Subtake:    p.Subtake,
		Actors:     p.Actors,
		ActorCount: string(p.ActorCount),
	}
}

func IdentityToResponse(i resolve.IdentityResolution) *IdentityResponse {
	return &IdentityResponse{
		IdentityAssetPath: i.IdentityAssetPath,
		SkeletalMeshPath:  i.SkeletalMeshPath,
		IsLegacy:          i.IsLegacy,
	}
}

func FolderToResponse(f resolve.SequenceFolderResolution) *FolderResponse {
	return &FolderResponse{
		ParentFolder: f.ParentFolder,
		ShotCode:     f.ShotCode,
		IsFallback:   f.IsFallback,
	}
}

func MappingsToResponse(t *mappings.Tables) MappingsResponse {
	return MappingsResponse{
		Origin:       t.Origin,
		LoadedAt:     t.LoadedAt.Format(time.RFC3339),
		Identities:   len(t.MHID),
		Aliases:      len(t.ActorCharacter),
		LegacyActors: len(t.LegacyActors),
		Sequences:    len(t.Sequences),
		KnownKeys:    t.KnownIdentityKeys(),
	}
}
