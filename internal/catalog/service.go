package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/slateflow/slateflow-agent/internal/logging"
	"github.com/slateflow/slateflow-agent/internal/mappings"
	"github.com/slateflow/slateflow-agent/internal/resolve"
	"github.com/slateflow/slateflow-agent/internal/shotname"
)

const fingerprintSize = 64 * 1024

type CatalogService interface {
	AddFolder(ctx context.Context, path, displayName, driveLabel string) (*Source, error)
	RemoveSource(ctx context.Context, id string) error
	GetSources(ctx context.Context) ([]*Source, error)
	GetSource(ctx context.Context, id string) (*Source, error)
	GetTakes(ctx context.Context, sourceID string) ([]*Take, error)
	GetTake(ctx context.Context, id string) (*Take, error)
	CountTakes(ctx context.Context) (int, error)
	SumTakeSizes(ctx context.Context) (int64, error)
	ScanSource(ctx context.Context, sourceID string) (*Job, error)
	ResolveSource(ctx context.Context, sourceID string) (*Job, error)
	ExecuteScan(ctx context.Context, jobID, sourceID, path string) error
	ExecuteResolve(ctx context.Context, jobID, sourceID string) error
	GetResolution(ctx context.Context, takeID string) (*Resolution, error)
	ListResolutions(ctx context.Context, sourceID, status string) ([]*Resolution, error)
}

type Service struct {
	repo       Repository
	mappings   *mappings.Store
	importRoot string
	logger     *slog.Logger
}

func NewService(repo Repository, store *mappings.Store, importRoot string, logger *slog.Logger) *Service {
	return &Service{repo: repo, mappings: store, importRoot: importRoot, logger: logger}
}

func (s *Service) AddFolder(ctx context.Context, path, displayName, driveLabel string) (*Source, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory")
	}

	existing, err := s.repo.GetSourceByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if displayName == "" {
		displayName = filepath.Base(absPath)
	}

	source := &Source{
		ID:          NewID(),
		Type:        "folder",
		Path:        absPath,
		DisplayName: displayName,
		DriveLabel:  driveLabel,
		Present:     true,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.CreateSource(ctx, source); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("folder added", "source_id", source.ID, "path", absPath)
	}
	return source, nil
}

func (s *Service) RemoveSource(ctx context.Context, id string) error {
	if err := s.repo.DeleteTakesBySource(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteSource(ctx, id)
}

func (s *Service) GetSources(ctx context.Context) ([]*Source, error) {
	return s.repo.ListSources(ctx)
}

func (s *Service) GetSource(ctx context.Context, id string) (*Source, error) {
	return s.repo.GetSource(ctx, id)
}

func (s *Service) GetTakes(ctx context.Context, sourceID string) ([]*Take, error) {
	return s.repo.GetTakesBySource(ctx, sourceID)
}

func (s *Service) GetTake(ctx context.Context, id string) (*Take, error) {
	return s.repo.GetTake(ctx, id)
}

func (s *Service) CountTakes(ctx context.Context) (int, error) {
	return s.repo.CountTakes(ctx)
}

func (s *Service) SumTakeSizes(ctx context.Context) (int64, error) {
	return s.repo.SumTakeSizes(ctx)
}

func (s *Service) GetResolution(ctx context.Context, takeID string) (*Resolution, error) {
	return s.repo.GetResolutionByTake(ctx, takeID)
}

func (s *Service) ListResolutions(ctx context.Context, sourceID, status string) ([]*Resolution, error) {
	return s.repo.ListResolutionsBySource(ctx, sourceID, status)
}

func (s *Service) ScanSource(ctx context.Context, sourceID string) (*Job, error) {
	source, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source not found")
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeScan,
		Status:    JobStatusPending,
		SourceID:  sourceID,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("scan job created", "job_id", job.ID, "source_id", sourceID)
	}
	return job, nil
}

func (s *Service) ResolveSource(ctx context.Context, sourceID string) (*Job, error) {
	source, err := s.repo.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("source not found")
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeResolve,
		Status:    JobStatusPending,
		SourceID:  sourceID,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("resolve job created", "job_id", job.ID, "source_id", sourceID)
	}
	return job, nil
}

func (s *Service) ExecuteScan(ctx context.Context, jobID, sourceID, path string) error {
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, "")
	if s.logger != nil {
		s.logger.Info("starting scan", "job_id", jobID, "path", path)
	}

	var files []string
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && IsTakeFile(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	total := len(files)
	if s.logger != nil {
		s.logger.Info("found take files", "count", total)
	}

	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		if err := s.processTake(ctx, sourceID, filePath); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to process take", "path", filePath, "error", err)
			}
		}

		progress := 0
		if total > 0 {
			progress = (i + 1) * 100 / total
		}
		s.repo.UpdateJobProgress(ctx, jobID, progress)
	}

	s.repo.UpdateJobStatus(ctx, jobID, JobStatusCompleted, "")
	if s.logger != nil {
		s.logger.Info("scan completed", "job_id", jobID, "takes_processed", total)
	}

	s.queueResolve(ctx, sourceID)
	return nil
}

// ExecuteResolve runs every take of a source through the resolver against
// one snapshot of the mapping tables. Each take records its own outcome;
// a take that fails to parse or map never aborts the batch.
func (s *Service) ExecuteResolve(ctx context.Context, jobID, sourceID string) error {
	s.repo.UpdateJobStatus(ctx, jobID, JobStatusRunning, "")
	if s.logger != nil {
		s.logger.Info("starting resolve", "job_id", jobID, "source_id", sourceID)
	}

	takes, err := s.repo.GetTakesBySource(ctx, sourceID)
	if err != nil {
		s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, err.Error())
		return err
	}

	resolver := resolve.NewResolver(s.mappings.Tables(), s.importRoot)

	total := len(takes)
	counts := map[string]int{}
	for i, take := range takes {
		select {
		case <-ctx.Done():
			s.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, "cancelled")
			return ctx.Err()
		default:
		}

		status, err := s.resolveTake(ctx, resolver, take)
		if err != nil {
			if s.logger != nil {
				logging.WithTakeID(s.logger, take.ID).Warn("failed to record resolution", "error", err)
			}
			continue
		}
		counts[status]++

		progress := (i + 1) * 100 / total
		s.repo.UpdateJobProgress(ctx, jobID, progress)
	}

	s.repo.UpdateJobStatus(ctx, jobID, JobStatusCompleted, "")
	if s.logger != nil {
		s.logger.Info("resolve completed", "job_id", jobID,
			"resolved", counts[ResolutionStatusResolved],
			"parse_failed", counts[ResolutionStatusParseFailed],
			"unmapped", counts[ResolutionStatusUnmapped])
	}
	return nil
}

func (s *Service) resolveTake(ctx context.Context, resolver *resolve.Resolver, take *Take) (string, error) {
	rec := &Resolution{
		ID:         NewID(),
		TakeID:     take.ID,
		SourceID:   take.SourceID,
		ResolvedAt: time.Now(),
	}

	parsed, err := shotname.Parse(take.Stem)
	if err != nil {
		rec.Status = ResolutionStatusParseFailed
		rec.Error = err.Error()
		return rec.Status, s.repo.UpsertResolution(ctx, rec)
	}

	rec.Character = parsed.Character
	rec.Slate = parsed.Slate
	rec.Sequence = parsed.Sequence
	rec.TakeNumber = parsed.Take
	rec.Subtake = parsed.Subtake
	rec.Actors = parsed.Actors
	rec.ActorCount = string(parsed.ActorCount)

	// The folder mapping is total, so even unmapped takes keep their
	// sequence routing on record.
	folder := resolver.ResolveSequenceFolder(parsed.Sequence)
	rec.ParentFolder = folder.ParentFolder
	rec.ShotCode = folder.ShotCode
	rec.IsFallback = folder.IsFallback

	res, err := resolver.ResolveParsed(parsed)
	if err != nil {
		rec.Status = ResolutionStatusUnmapped
		rec.Error = err.Error()
		return rec.Status, s.repo.UpsertResolution(ctx, rec)
	}

	rec.Status = ResolutionStatusResolved
	rec.IdentityAssetPath = res.Identity.IdentityAssetPath
	rec.SkeletalMeshPath = res.Identity.SkeletalMeshPath
	rec.IsLegacy = res.Identity.IsLegacy
	rec.AssetName = res.AssetName
	rec.TargetFolder = res.TargetFolder
	rec.TargetPath = res.TargetPath
	return rec.Status, s.repo.UpsertResolution(ctx, rec)
}

func (s *Service) queueResolve(ctx context.Context, sourceID string) {
	pending, err := s.repo.ListPendingJobs(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to list pending jobs", "error", err)
		}
		return
	}
	for _, j := range pending {
		if j.Type == JobTypeResolve && j.SourceID == sourceID {
			return
		}
	}

	now := time.Now()
	job := &Job{
		ID:        NewID(),
		Type:      JobTypeResolve,
		Status:    JobStatusPending,
		SourceID:  sourceID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to queue resolve job", "source_id", sourceID, "error", err)
		}
		return
	}

	if s.logger != nil {
		s.logger.Info("resolve job queued", "source_id", sourceID, "job_id", job.ID)
	}
}

func (s *Service) processTake(ctx context.Context, sourceID, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fingerprint, err := computeFingerprint(path)
	if err != nil {
		return err
	}

	take := &Take{
		ID:          NewID(),
		SourceID:    sourceID,
		Path:        path,
		Filename:    filepath.Base(path),
		Stem:        TakeStem(filepath.Base(path)),
		Size:        info.Size(),
		Mtime:       info.ModTime(),
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}

	return s.repo.UpsertTake(ctx, take)
}

func computeFingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	lr := io.LimitReader(f, fingerprintSize)
	if _, err := io.Copy(h, lr); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
