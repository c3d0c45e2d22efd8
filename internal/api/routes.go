package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/resolve"
	"github.com/slateflow/slateflow-agent/internal/shotname"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	// Media is served without token auth so local players can open the
	// URL directly; the loopback guard fences it to this machine.
	r.Group(func(r chi.Router) {
		r.Use(LoopbackGuard())

		r.Get("/takes/{id}/media", takeMediaHandler(cfg))
		r.Head("/takes/{id}/media", takeMediaHandler(cfg))
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/sources", listSourcesHandler(cfg))
		r.Post("/sources/folders", addFolderHandler(cfg))
		r.Delete("/sources/{id}", deleteSourceHandler(cfg))
		r.Get("/sources/{id}/takes", listTakesHandler(cfg))
		r.Get("/sources/{id}/resolutions", listResolutionsHandler(cfg))
		r.Post("/scan", scanHandler(cfg))
		r.Post("/resolve", resolveHandler(cfg))
		r.Post("/resolve/preview", previewHandler(cfg))
		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.Get("/takes/{id}", getTakeHandler(cfg))
		r.Get("/takes/{id}/resolution", getTakeResolutionHandler(cfg))
		r.Post("/manifests", createManifestHandler(cfg))
		r.Get("/mappings", mappingsHandler(cfg))
		r.Post("/mappings/reload", reloadMappingsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  cfg.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		sources, _ := cfg.CatalogService.GetSources(ctx)
		takesCount, _ := cfg.CatalogService.CountTakes(ctx)
		totalBytes, _ := cfg.CatalogService.SumTakeSizes(ctx)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == catalog.JobStatusRunning {
				switch j.Type {
				case catalog.JobTypeScan:
					state = "scanning"
				case catalog.JobTypeResolve:
					state = "resolving"
				default:
					state = "running"
				}
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == catalog.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resolved, _ := cfg.Repository.CountResolutionsByStatus(ctx, catalog.ResolutionStatusResolved)
		parseFailed, _ := cfg.Repository.CountResolutionsByStatus(ctx, catalog.ResolutionStatusParseFailed)
		unmapped, _ := cfg.Repository.CountResolutionsByStatus(ctx, catalog.ResolutionStatusUnmapped)

		resp := StatusResponse{
			State:        state,
			LastError:    lastError,
			SourcesCount: len(sources),
			TakesCount:   takesCount,
			TotalBytes:   totalBytes,
			TotalSize:    humanize.Bytes(uint64(totalBytes)),
			JobsRunning:  jobsRunning,
			ActiveJob:    activeJob,
			Resolutions: &ResolutionStats{
				Resolved:    resolved,
				ParseFailed: parseFailed,
				Unmapped:    unmapped,
			},
		}

		if cfg.Mappings != nil {
			t := cfg.Mappings.Tables()
			resp.Mappings = &MappingsInfo{
				Origin:     t.Origin,
				Identities: len(t.MHID),
				Sequences:  len(t.Sequences),
				LoadedAt:   t.LoadedAt.Format(time.RFC3339),
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSourcesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := cfg.CatalogService.GetSources(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list sources", "INTERNAL_ERROR")
			return
		}

		resp := SourcesResponse{Sources: make([]SourceResponse, len(sources))}
		for i, s := range sources {
			resp.Sources[i] = SourceToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func addFolderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddFolderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.Path == "" {
			WriteError(w, http.StatusBadRequest, "path is required", "BAD_REQUEST")
			return
		}

		source, err := cfg.CatalogService.AddFolder(r.Context(), req.Path, req.DisplayName, req.DriveLabel)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusCreated, AddFolderResponse{SourceID: source.ID})
	}
}

func deleteSourceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "source id required", "BAD_REQUEST")
			return
		}

		if err := cfg.CatalogService.RemoveSource(r.Context(), id); err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listTakesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID := chi.URLParam(r, "id")
		if sourceID == "" {
			WriteError(w, http.StatusBadRequest, "source id required", "BAD_REQUEST")
			return
		}

		takes, err := cfg.CatalogService.GetTakes(r.Context(), sourceID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := TakesResponse{Takes: make([]TakeResponse, len(takes))}
		for i, t := range takes {
			resp.Takes[i] = TakeToResponse(t)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listResolutionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sourceID := chi.URLParam(r, "id")
		if sourceID == "" {
			WriteError(w, http.StatusBadRequest, "source id required", "BAD_REQUEST")
			return
		}

		status := r.URL.Query().Get("status")
		switch status {
		case "", catalog.ResolutionStatusResolved, catalog.ResolutionStatusParseFailed, catalog.ResolutionStatusUnmapped:
		default:
			WriteError(w, http.StatusBadRequest, "unknown resolution status", "BAD_REQUEST")
			return
		}

		resolutions, err := cfg.CatalogService.ListResolutions(r.Context(), sourceID, status)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resp := ResolutionsResponse{Resolutions: make([]ResolutionResponse, len(resolutions))}
		for i, res := range resolutions {
			resp.Resolutions[i] = ResolutionToResponse(res)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func scanHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sourceID, ok := defaultSourceID(w, r, cfg, req.SourceID)
		if !ok {
			return
		}

		job, err := cfg.CatalogService.ScanSource(r.Context(), sourceID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ScanResponse{JobID: job.ID})
	}
}

func resolveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		sourceID, ok := defaultSourceID(w, r, cfg, req.SourceID)
		if !ok {
			return
		}

		job, err := cfg.CatalogService.ResolveSource(r.Context(), sourceID)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, ResolveResponse{JobID: job.ID})
	}
}

// defaultSourceID falls back to the first configured source when the
// request names none, matching what the tray's one-click actions expect.
func defaultSourceID(w http.ResponseWriter, r *http.Request, cfg ServerConfig, sourceID string) (string, bool) {
	if sourceID != "" {
		return sourceID, true
	}

	sources, err := cfg.CatalogService.GetSources(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
		return "", false
	}
	if len(sources) == 0 {
		WriteError(w, http.StatusBadRequest, "no sources configured", "BAD_REQUEST")
		return "", false
	}
	return sources[0].ID, true
}

func previewHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PreviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if strings.TrimSpace(req.Name) == "" {
			WriteError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
			return
		}

		resolver := resolve.NewResolver(cfg.Mappings.Tables(), cfg.ImportRoot)

		res, err := resolver.Resolve(req.Name)
		if err != nil {
			var parseErr *shotname.ParseError
			if errors.As(err, &parseErr) {
				WriteJSON(w, http.StatusOK, PreviewResponse{
					Status: catalog.ResolutionStatusParseFailed,
					Error:  err.Error(),
				})
				return
			}

			var notFound *resolve.NotFoundError
			if errors.As(err, &notFound) {
				resp := PreviewResponse{
					Status: catalog.ResolutionStatusUnmapped,
					Error:  err.Error(),
				}
				// Parsing succeeded, so the structured fields and the
				// folder routing are still worth showing.
				if parsed, perr := shotname.Parse(req.Name); perr == nil {
					resp.Parsed = ParsedNameToResponse(parsed)
					resp.Folder = FolderToResponse(resolver.ResolveSequenceFolder(parsed.Sequence))
				}
				WriteJSON(w, http.StatusOK, resp)
				return
			}

			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, PreviewResponse{
			Status:       catalog.ResolutionStatusResolved,
			Parsed:       ParsedNameToResponse(res.Name),
			Identity:     IdentityToResponse(res.Identity),
			Folder:       FolderToResponse(res.Folder),
			AssetName:    res.AssetName,
			TargetFolder: res.TargetFolder,
			TargetPath:   res.TargetPath,
		})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "job id required", "BAD_REQUEST")
			return
		}

		job, err := cfg.Repository.GetJob(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func getTakeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "take id required", "BAD_REQUEST")
			return
		}

		take, err := cfg.CatalogService.GetTake(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if take == nil {
			WriteError(w, http.StatusNotFound, "take not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, TakeToResponse(take))
	}
}

func getTakeResolutionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "take id required", "BAD_REQUEST")
			return
		}

		res, err := cfg.CatalogService.GetResolution(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if res == nil {
			WriteError(w, http.StatusNotFound, "no resolution for take", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, ResolutionToResponse(res))
	}
}

func takeMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		takeID := chi.URLParam(r, "id")
		if takeID == "" {
			WriteError(w, http.StatusBadRequest, "take id required", "BAD_REQUEST")
			return
		}

		take, err := cfg.CatalogService.GetTake(r.Context(), takeID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if take == nil {
			WriteError(w, http.StatusNotFound, "take not found", "NOT_FOUND")
			return
		}

		source, _ := cfg.CatalogService.GetSource(r.Context(), take.SourceID)
		if source != nil && !source.Present {
			WriteError(w, http.StatusNotFound,
				"media not available - drive '"+source.DriveLabel+"' is disconnected",
				"DRIVE_DISCONNECTED")
			return
		}

		if err := cfg.Playback.ServeMedia(w, r, take.Path); err != nil {
			cfg.Logger.Error("media streaming error", "error", err, "take_id", takeID)
		}
	}
}

func mappingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, MappingsToResponse(cfg.Mappings.Tables()))
	}
}

func reloadMappingsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tables, err := cfg.Mappings.Reload()
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "RELOAD_FAILED")
			return
		}

		WriteJSON(w, http.StatusOK, MappingsToResponse(tables))
	}
}
