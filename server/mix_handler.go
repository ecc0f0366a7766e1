package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"VerseClash/cache"
	"VerseClash/core/audio"
	"VerseClash/logger"
	"VerseClash/model"
)

// MixAudioRequest triggers the audio pipeline for one battle.
type MixAudioRequest struct {
	BattleID string `json:"battleId"`
}

// MixAudioHandler runs the full audio pipeline for a battle and returns
// the published download URL. Precondition problems (missing battle,
// expired battle, nothing to mix, concurrent mix) are 4xx with a
// machine-readable code; pipeline failures are 5xx with a generic
// message. Internal diagnostics such as ffmpeg stderr stay in the logs.
func (h *APIHandler) MixAudioHandler(w http.ResponseWriter, r *http.Request) {
	var req MixAudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BattleID == "" {
		respondWithError(w, http.StatusBadRequest, "bad_request", "battleId is required")
		return
	}

	battle, err := h.loadBattle(r.Context(), req.BattleID)
	if err != nil {
		logger.Error("Failed to load battle for mixing",
			logger.String("battleId", req.BattleID), logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "internal", "Failed to retrieve battle")
		return
	}
	if battle == nil {
		respondWithError(w, http.StatusNotFound, "battle_not_found", "Battle does not exist")
		return
	}
	if battle.Expired(time.Now()) {
		respondWithError(w, http.StatusGone, "battle_expired", "Battle has expired")
		return
	}
	if !battle.HasAudioSources() {
		respondWithError(w, http.StatusUnprocessableEntity, "nothing_to_mix",
			"Battle has no beat or vocals to mix")
		return
	}

	locked, err := cache.AcquireMixLock(r.Context(), battle.ID)
	if err != nil {
		logger.Warn("Mix lock unavailable, proceeding unlocked",
			logger.String("battleId", battle.ID), logger.ErrorField(err))
	} else if !locked {
		respondWithError(w, http.StatusConflict, "mix_in_progress",
			"A mix for this battle is already running")
		return
	}
	if err == nil {
		defer func() {
			if relErr := cache.ReleaseMixLock(context.Background(), battle.ID); relErr != nil {
				logger.Warn("Failed to release mix lock",
					logger.String("battleId", battle.ID), logger.ErrorField(relErr))
			}
		}()
	}

	result, err := h.runMix(r.Context(), battle)
	if err != nil {
		status, code := mixErrorStatus(err)
		if status >= 500 {
			respondWithError(w, status, code, "Failed to mix audio")
		} else {
			respondWithError(w, status, code, err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"downloadUrl": result.URL,
	})
}

// runMix executes the pipeline for a battle and persists the outcome on
// the record, success or failure.
func (h *APIHandler) runMix(ctx context.Context, battle *model.Battle) (*audio.MixResult, error) {
	start := time.Now()
	result, err := h.pipeline.ProcessFullBattle(ctx, battle.ID, battle.BeatURL, battle.VocalsRef)
	if err != nil {
		logger.Error("Audio pipeline failed",
			logger.String("battleId", battle.ID),
			logger.Duration("elapsed", time.Since(start)),
			logger.ErrorField(err))
		if dbErr := h.battleRepo.UpdateMixError(ctx, battle.ID, truncate(err.Error(), 512)); dbErr != nil {
			logger.Warn("Failed to record mix error",
				logger.String("battleId", battle.ID), logger.ErrorField(dbErr))
		}
		return nil, err
	}

	if err := h.battleRepo.UpdateMixResult(ctx, battle.ID, result.URL, result.Duration); err != nil {
		logger.Error("Failed to persist mix result",
			logger.String("battleId", battle.ID), logger.ErrorField(err))
		return nil, err
	}

	if err := cache.InvalidateBattle(ctx, battle.ID); err != nil {
		logger.Warn("Failed to invalidate battle cache",
			logger.String("battleId", battle.ID), logger.ErrorField(err))
	}

	logger.Info("Mix published",
		logger.String("battleId", battle.ID),
		logger.String("url", result.URL),
		logger.Float64("duration", float64(result.Duration)),
		logger.Duration("elapsed", time.Since(start)))
	return result, nil
}

// mixInBackground is the detached spawn used by battle creation. Errors
// land on the battle record and in the logs, never in the creation
// response.
func (h *APIHandler) mixInBackground(battle *model.Battle) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("Background mix panicked",
				logger.String("battleId", battle.ID), logger.Any("panic", rec))
		}
	}()

	ctx := context.Background()

	locked, err := cache.AcquireMixLock(ctx, battle.ID)
	if err != nil {
		logger.Warn("Mix lock unavailable for background mix, proceeding unlocked",
			logger.String("battleId", battle.ID), logger.ErrorField(err))
	} else if !locked {
		logger.Info("Skipping background mix, another mix is in flight",
			logger.String("battleId", battle.ID))
		return
	}
	if err == nil {
		defer func() {
			if relErr := cache.ReleaseMixLock(ctx, battle.ID); relErr != nil {
				logger.Warn("Failed to release mix lock",
					logger.String("battleId", battle.ID), logger.ErrorField(relErr))
			}
		}()
	}

	if _, err := h.runMix(ctx, battle); err != nil {
		logger.Error("Background mix failed",
			logger.String("battleId", battle.ID), logger.ErrorField(err))
	}
}

// mixErrorStatus maps a pipeline error to an HTTP status and error code.
func mixErrorStatus(err error) (int, string) {
	var precond *audio.PreconditionError
	if errors.As(err, &precond) {
		return http.StatusUnprocessableEntity, "nothing_to_mix"
	}
	var payload *audio.InvalidPayloadError
	if errors.As(err, &payload) {
		return http.StatusUnprocessableEntity, "invalid_payload"
	}
	var download *audio.DownloadError
	if errors.As(err, &download) {
		return http.StatusBadGateway, "download_failed"
	}
	return http.StatusInternalServerError, "mix_failed"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
