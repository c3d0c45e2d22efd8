package api

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/slateflow/slateflow-agent/internal/catalog"
	"github.com/slateflow/slateflow-agent/internal/manifest"
)

// createManifestHandler writes an import manifest for one source. Only
// resolved takes become entries; everything else is listed under skipped
// so operators can see what the importer will not pick up.
func createManifestHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req manifest.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.SourceID == "" {
			WriteError(w, http.StatusBadRequest, "source_id is required", "BAD_REQUEST")
			return
		}

		outputDir := req.OutputDir
		if outputDir == "" {
			outputDir = cfg.ManifestDir
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to create manifest directory", "INTERNAL_ERROR")
				return
			}
		}
		if err := manifest.ValidateOutputDir(outputDir); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_OUTPUT_DIR")
			return
		}

		source, err := cfg.CatalogService.GetSource(r.Context(), req.SourceID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if source == nil {
			WriteError(w, http.StatusNotFound, "source not found", "NOT_FOUND")
			return
		}

		takes, err := cfg.CatalogService.GetTakes(r.Context(), req.SourceID)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		resolutions, err := cfg.CatalogService.ListResolutions(r.Context(), req.SourceID, "")
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}

		byTake := make(map[string]*catalog.Resolution, len(resolutions))
		for _, res := range resolutions {
			byTake[res.TakeID] = res
		}

		var entries []manifest.Entry
		var skipped []manifest.SkippedEntry
		for _, take := range takes {
			res, ok := byTake[take.ID]
			if !ok {
				skipped = append(skipped, manifest.SkippedEntry{
					TakeID:   take.ID,
					ShotName: take.Stem,
					Status:   "unresolved",
					Reason:   "no resolution recorded for take",
				})
				continue
			}
			if res.Status != catalog.ResolutionStatusResolved {
				skipped = append(skipped, manifest.SkippedEntry{
					TakeID:   take.ID,
					ShotName: take.Stem,
					Status:   res.Status,
					Reason:   res.Error,
				})
				continue
			}

			entries = append(entries, manifest.Entry{
				TakeID:            take.ID,
				ShotName:          take.Stem,
				MediaPath:         take.Path,
				AssetName:         res.AssetName,
				TargetFolder:      res.TargetFolder,
				TargetPath:        res.TargetPath,
				IdentityAssetPath: res.IdentityAssetPath,
				SkeletalMeshPath:  res.SkeletalMeshPath,
				IsLegacy:          res.IsLegacy,
				Slate:             res.Slate,
				Sequence:          res.Sequence,
				TakeNumber:        res.TakeNumber,
				Subtake:           res.Subtake,
				Actors:            res.Actors,
			})
		}

		if len(entries) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no resolved takes for source", "NO_RESOLVED_TAKES")
			return
		}

		title := req.Title
		if title == "" {
			title = source.DisplayName
		}

		m := manifest.Build(title, cfg.ImportRoot, entries, skipped)
		outputPath, err := manifest.Write(m, outputDir)
		if err != nil {
			cfg.Logger.Error("manifest write failed", "error", err, "dir", outputDir)
			WriteError(w, http.StatusInternalServerError, "failed to write manifest", "WRITE_FAILED")
			return
		}

		cfg.Logger.Info("manifest written",
			"path", outputPath,
			"entries", len(entries),
			"skipped", len(skipped))

		WriteJSON(w, http.StatusOK, manifest.Response{
			Status:       "ok",
			OutputPath:   outputPath,
			EntryCount:   len(entries),
			SkippedCount: len(skipped),
		})
	}
}
