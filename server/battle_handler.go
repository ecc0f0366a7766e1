package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"VerseClash/cache"
	"VerseClash/logger"
	"VerseClash/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// CreateBattleRequest is the creation request body. Lyrics and vocals
// typically come from a preceding /api/generate call.
type CreateBattleRequest struct {
	Character1ID string `json:"character1Id"`
	Character2ID string `json:"character2Id"`
	Topic        string `json:"topic"`
	Beat         struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"beat"`
	Lyrics struct {
		Character1 string `json:"character1"`
		Character2 string `json:"character2"`
	} `json:"lyrics"`
	VocalsURL   string `json:"vocalsUrl,omitempty"` // remote URL or data URI
	Winner      string `json:"winner,omitempty"`
	Judge1Name  string `json:"judge1Name,omitempty"`
	Commentary1 string `json:"commentary1,omitempty"`
	Judge2Name  string `json:"judge2Name,omitempty"`
	Commentary2 string `json:"commentary2,omitempty"`
	IsPublic    *bool  `json:"isPublic,omitempty"`
}

// CreateBattleHandler persists a new battle and, when both audio
// sources are present, fires the mix pipeline in the background. The
// response never waits for mixing: clients poll the battle or subscribe
// to its status socket.
func (h *APIHandler) CreateBattleHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateBattleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}

	if req.Character1ID == "" || req.Character2ID == "" || req.Topic == "" || req.Beat.URL == "" {
		respondWithError(w, http.StatusBadRequest, "bad_request",
			"character1Id, character2Id, topic and beat are required")
		return
	}
	if req.Lyrics.Character1 == "" || req.Lyrics.Character2 == "" {
		respondWithError(w, http.StatusBadRequest, "bad_request", "Both character lyrics are required")
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := time.Now()
	expiresAt := now.Add(h.cfg.BattleTTL)

	battle := &model.Battle{
		ID:           uuid.NewString(),
		UserID:       userID,
		Character1ID: req.Character1ID,
		Character2ID: req.Character2ID,
		Topic:        req.Topic,
		Lyrics1:      req.Lyrics.Character1,
		Lyrics2:      req.Lyrics.Character2,
		BeatName:     req.Beat.Name,
		BeatURL:      req.Beat.URL,
		VocalsRef:    req.VocalsURL,
		Winner:       req.Winner,
		Judge1Name:   req.Judge1Name,
		Commentary1:  req.Commentary1,
		Judge2Name:   req.Judge2Name,
		Commentary2:  req.Commentary2,
		IsPublic:     isPublic,
		ExpiresAt:    &expiresAt,
	}

	if err := h.battleRepo.Create(r.Context(), battle); err != nil {
		logger.Error("Failed to create battle", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "internal", "Failed to create battle")
		return
	}

	// Fire-and-forget: mixing happens after the creation response.
	if battle.HasAudioSources() {
		go h.mixInBackground(battle)
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success":  true,
		"battleId": battle.ID,
		"shareUrl": h.cfg.BaseURL + "/battles/" + battle.ID,
	})
}

// GetBattleHandler returns one battle record. The mix URL is absent
// until the background pipeline has finished.
func (h *APIHandler) GetBattleHandler(w http.ResponseWriter, r *http.Request) {
	battleID := mux.Vars(r)["id"]
	if battleID == "" {
		respondWithError(w, http.StatusBadRequest, "bad_request", "Battle id is required")
		return
	}

	battle, err := h.loadBattle(r.Context(), battleID)
	if err != nil {
		logger.Error("Failed to load battle", logger.String("battleId", battleID), logger.ErrorField(err))
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

	// Best effort; a lost view count never fails the request.
	if err := h.battleRepo.IncrementViewCount(r.Context(), battleID); err != nil {
		logger.Warn("Failed to increment view count",
			logger.String("battleId", battleID), logger.ErrorField(err))
	}

	respondWithJSON(w, http.StatusOK, battle)
}

// loadBattle reads a battle through the cache.
func (h *APIHandler) loadBattle(ctx context.Context, battleID string) (*model.Battle, error) {
	if cached, err := cache.GetCachedBattle(ctx, battleID); err == nil && cached != nil {
		return cached, nil
	}

	battle, err := h.battleRepo.GetByID(ctx, battleID)
	if err != nil || battle == nil {
		return battle, err
	}

	if err := cache.CacheBattle(ctx, battle); err != nil {
		logger.Warn("Failed to cache battle", logger.String("battleId", battleID), logger.ErrorField(err))
	}
	return battle, nil
}

// GenerateRequest asks for lyrics and a vocal performance for a matchup.
type GenerateRequest struct {
	Character1      string `json:"character1"`
	Character2      string `json:"character2"`
	Topic           string `json:"topic"`
	NumVerses       int    `json:"numVerses"`
	Character1Voice string `json:"character1Voice"`
	Character2Voice string `json:"character2Voice"`
}

// GenerateHandler produces battle lyrics and synthesized vocals via the
// generation service. The vocals come back as a WAV data URI the
// creation request can pass through as vocalsUrl.
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil {
		respondWithError(w, http.StatusServiceUnavailable, "generation_unavailable",
			"Generation service is not configured")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Character1 == "" || req.Character2 == "" || req.Topic == "" {
		respondWithError(w, http.StatusBadRequest, "bad_request",
			"character1, character2 and topic are required")
		return
	}
	if req.NumVerses <= 0 {
		req.NumVerses = 2
	}

	lyrics, err := h.generator.GenerateLyrics(r.Context(), req.Character1, req.Character2, req.Topic, req.NumVerses)
	if err != nil {
		logger.Error("Lyrics generation failed", logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "generation_failed", "Failed to generate lyrics")
		return
	}

	vocalsURI, err := h.generator.SynthesizeVocals(r.Context(),
		lyrics.Character1, req.Character1Voice, lyrics.Character2, req.Character2Voice)
	if err != nil {
		logger.Error("Vocal synthesis failed", logger.ErrorField(err))
		respondWithError(w, http.StatusBadGateway, "generation_failed", "Failed to synthesize vocals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"lyrics": map[string]string{
			"character1": lyrics.Character1,
			"character2": lyrics.Character2,
		},
		"audioDataUri": vocalsURI,
	})
}
