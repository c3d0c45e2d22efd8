package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type Repository interface {
	CreateSource(ctx context.Context, source *Source) error
	GetSource(ctx context.Context, id string) (*Source, error)
	GetSourceByPath(ctx context.Context, path string) (*Source, error)
	ListSources(ctx context.Context) ([]*Source, error)
	DeleteSource(ctx context.Context, id string) error
	UpdateSourcePresent(ctx context.Context, id string, present bool) error

	CreateTake(ctx context.Context, take *Take) error
	GetTake(ctx context.Context, id string) (*Take, error)
	ListTakes(ctx context.Context) ([]*Take, error)
	GetTakesBySource(ctx context.Context, sourceID string) ([]*Take, error)
	DeleteTakesBySource(ctx context.Context, sourceID string) error
	UpsertTake(ctx context.Context, take *Take) error
	CountTakes(ctx context.Context) (int, error)
	SumTakeSizes(ctx context.Context) (int64, error)

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error

	UpsertResolution(ctx context.Context, res *Resolution) error
	GetResolutionByTake(ctx context.Context, takeID string) (*Resolution, error)
	ListResolutionsBySource(ctx context.Context, sourceID, status string) ([]*Resolution, error)
	CountResolutionsByStatus(ctx context.Context, status string) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateSource(ctx context.Context, s *Source) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sources (id, type, path, display_name, drive_label, present, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.Type, s.Path, s.DisplayName, nullString(s.DriveLabel), boolToInt(s.Present), s.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetSource(ctx context.Context, id string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, path, display_name, drive_label, present, created_at
		FROM sources WHERE id = ?
	`, id)
	return r.scanSource(row)
}

func (r *SQLiteRepository) GetSourceByPath(ctx context.Context, path string) (*Source, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, path, display_name, drive_label, present, created_at
		FROM sources WHERE path = ?
	`, path)
	return r.scanSource(row)
}

func (r *SQLiteRepository) scanSource(row *sql.Row) (*Source, error) {
	var s Source
	var present int
	var createdAt string
	var driveLabel sql.NullString

	err := row.Scan(&s.ID, &s.Type, &s.Path, &s.DisplayName, &driveLabel, &present, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Present = present == 1
	s.DriveLabel = driveLabel.String
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &s, nil
}

func (r *SQLiteRepository) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, path, display_name, drive_label, present, created_at
		FROM sources ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var s Source
		var present int
		var createdAt string
		var driveLabel sql.NullString

		if err := rows.Scan(&s.ID, &s.Type, &s.Path, &s.DisplayName, &driveLabel, &present, &createdAt); err != nil {
			return nil, err
		}
		s.Present = present == 1
		s.DriveLabel = driveLabel.String
		s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

func (r *SQLiteRepository) DeleteSource(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sources WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateSourcePresent(ctx context.Context, id string, present bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE sources SET present = ? WHERE id = ?", boolToInt(present), id)
	return err
}

func (r *SQLiteRepository) CreateTake(ctx context.Context, t *Take) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO takes (id, source_id, path, filename, stem, size, mtime, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.SourceID, t.Path, t.Filename, t.Stem, t.Size, t.Mtime.Format(time.RFC3339), t.Fingerprint, t.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetTake(ctx context.Context, id string) (*Take, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_id, path, filename, stem, size, mtime, fingerprint, created_at
		FROM takes WHERE id = ?
	`, id)

	var t Take
	var mtime, createdAt string
	err := row.Scan(&t.ID, &t.SourceID, &t.Path, &t.Filename, &t.Stem, &t.Size, &mtime, &t.Fingerprint, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Mtime, _ = time.Parse(time.RFC3339, mtime)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &t, nil
}

func (r *SQLiteRepository) ListTakes(ctx context.Context) ([]*Take, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_id, path, filename, stem, size, mtime, fingerprint, created_at
		FROM takes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTakes(rows)
}

func (r *SQLiteRepository) GetTakesBySource(ctx context.Context, sourceID string) ([]*Take, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_id, path, filename, stem, size, mtime, fingerprint, created_at
		FROM takes WHERE source_id = ? ORDER BY filename
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTakes(rows)
}

func (r *SQLiteRepository) scanTakes(rows *sql.Rows) ([]*Take, error) {
	var takes []*Take
	for rows.Next() {
		var t Take
		var mtime, createdAt string
		if err := rows.Scan(&t.ID, &t.SourceID, &t.Path, &t.Filename, &t.Stem, &t.Size, &mtime, &t.Fingerprint, &createdAt); err != nil {
			return nil, err
		}
		t.Mtime, _ = time.Parse(time.RFC3339, mtime)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		takes = append(takes, &t)
	}
	return takes, rows.Err()
}

func (r *SQLiteRepository) DeleteTakesBySource(ctx context.Context, sourceID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM takes WHERE source_id = ?", sourceID)
	return err
}

func (r *SQLiteRepository) UpsertTake(ctx context.Context, t *Take) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO takes (id, source_id, path, filename, stem, size, mtime, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, path) DO UPDATE SET
			filename = excluded.filename,
			stem = excluded.stem,
			size = excluded.size,
			mtime = excluded.mtime,
			fingerprint = excluded.fingerprint
	`, t.ID, t.SourceID, t.Path, t.Filename, t.Stem, t.Size, t.Mtime.Format(time.RFC3339), t.Fingerprint, t.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) CountTakes(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM takes").Scan(&count)
	return count, err
}

func (r *SQLiteRepository) SumTakeSizes(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(size), 0) FROM takes").Scan(&total)
	return total, err
}

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (id, type, status, source_id, take_id, progress, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, nullString(j.SourceID), nullString(j.TakeID),
		j.Progress, nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, type, status, source_id, take_id, progress, error, created_at, updated_at
		FROM jobs WHERE id = ?
	`, id)
	return r.scanJob(row)
}

func (r *SQLiteRepository) scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var sourceID, takeID, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &sourceID, &takeID, &j.Progress, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	j.SourceID = sourceID.String
	j.TakeID = takeID.String
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, source_id, take_id, progress, error, created_at, updated_at
		FROM jobs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, status, source_id, take_id, progress, error, created_at, updated_at
		FROM jobs WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

func (r *SQLiteRepository) scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var sourceID, takeID, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &sourceID, &takeID, &j.Progress, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		j.SourceID = sourceID.String
		j.TakeID = takeID.String
		j.Error = errMsg.String
		j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = datetime('now') WHERE id = ?
	`, status, nullString(errorMsg), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = datetime('now') WHERE id = ?
	`, progress, id)
	return err
}

const resolutionColumns = `id, take_id, source_id, status,
		character, slate, sequence, take_number, subtake, actors, actor_count,
		identity_asset_path, skeletal_mesh_path, is_legacy,
		parent_folder, shot_code, is_fallback,
		asset_name, target_folder, target_path, error, resolved_at`

func (r *SQLiteRepository) UpsertResolution(ctx context.Context, res *Resolution) error {
	actors, err := json.Marshal(res.Actors)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO resolutions (`+resolutionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(take_id) DO UPDATE SET
			status = excluded.status,
			character = excluded.character,
			slate = excluded.slate,
			sequence = excluded.sequence,
			take_number = excluded.take_number,
			subtake = excluded.subtake,
			actors = excluded.actors,
			actor_count = excluded.actor_count,
			identity_asset_path = excluded.identity_asset_path,
			skeletal_mesh_path = excluded.skeletal_mesh_path,
			is_legacy = excluded.is_legacy,
			parent_folder = excluded.parent_folder,
			shot_code = excluded.shot_code,
			is_fallback = excluded.is_fallback,
			asset_name = excluded.asset_name,
			target_folder = excluded.target_folder,
			target_path = excluded.target_path,
			error = excluded.error,
			resolved_at = excluded.resolved_at
	`, res.ID, res.TakeID, res.SourceID, res.Status,
		nullString(res.Character), nullString(res.Slate), nullString(res.Sequence),
		nullString(res.TakeNumber), nullString(res.Subtake), string(actors), nullString(res.ActorCount),
		nullString(res.IdentityAssetPath), nullString(res.SkeletalMeshPath), boolToInt(res.IsLegacy),
		nullString(res.ParentFolder), nullString(res.ShotCode), boolToInt(res.IsFallback),
		nullString(res.AssetName), nullString(res.TargetFolder), nullString(res.TargetPath),
		nullString(res.Error), res.ResolvedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetResolutionByTake(ctx context.Context, takeID string) (*Resolution, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+resolutionColumns+`
		FROM resolutions WHERE take_id = ?
	`, takeID)
	return r.scanResolution(row)
}

func (r *SQLiteRepository) ListResolutionsBySource(ctx context.Context, sourceID, status string) ([]*Resolution, error) {
	query := `
		SELECT ` + resolutionColumns + `
		FROM resolutions WHERE source_id = ?`
	args := []any{sourceID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY resolved_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanResolutions(rows)
}

func (r *SQLiteRepository) CountResolutionsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM resolutions WHERE status = ?", status).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) scanResolution(row *sql.Row) (*Resolution, error) {
	res, err := scanResolutionFields(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

func (r *SQLiteRepository) scanResolutions(rows *sql.Rows) ([]*Resolution, error) {
	var results []*Resolution
	for rows.Next() {
		res, err := scanResolutionFields(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func scanResolutionFields(row interface{ Scan(dest ...any) error }) (*Resolution, error) {
	var res Resolution
	var character, slate, sequence, takeNumber, subtake, actors, actorCount sql.NullString
	var identityPath, meshPath, parentFolder, shotCode sql.NullString
	var assetName, targetFolder, targetPath, errMsg sql.NullString
	var isLegacy, isFallback int
	var resolvedAt string

	err := row.Scan(&res.ID, &res.TakeID, &res.SourceID, &res.Status,
		&character, &slate, &sequence, &takeNumber, &subtake, &actors, &actorCount,
		&identityPath, &meshPath, &isLegacy,
		&parentFolder, &shotCode, &isFallback,
		&assetName, &targetFolder, &targetPath, &errMsg, &resolvedAt)
	if err != nil {
		return nil, err
	}

	res.Character = character.String
	res.Slate = slate.String
	res.Sequence = sequence.String
	res.TakeNumber = takeNumber.String
	res.Subtake = subtake.String
	if actors.String != "" && actors.String != "null" {
		if err := json.Unmarshal([]byte(actors.String), &res.Actors); err != nil {
			return nil, err
		}
	}
	res.ActorCount = actorCount.String
	res.IdentityAssetPath = identityPath.String
	res.SkeletalMeshPath = meshPath.String
	res.IsLegacy = isLegacy == 1
	res.ParentFolder = parentFolder.String
	res.ShotCode = shotCode.String
	res.IsFallback = isFallback == 1
	res.AssetName = assetName.String
	res.TargetFolder = targetFolder.String
	res.TargetPath = targetPath.String
	res.Error = errMsg.String
	res.ResolvedAt, _ = time.Parse(time.RFC3339, resolvedAt)
	return &res, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
