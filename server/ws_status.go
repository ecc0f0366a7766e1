package server

import (
	"net/http"
	"time"

	"VerseClash/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// mixStatus is one status push on the battle status socket.
type mixStatus struct {
	BattleID string `json:"battleId"`
	Status   string `json:"status"` // processing, ready, failed
	MixURL   string `json:"mixUrl,omitempty"`
	MixError string `json:"mixError,omitempty"`
}

const (
	statusPollInterval = 2 * time.Second
	statusMaxWait      = 5 * time.Minute
)

// BattleStatusHandler pushes mix progress for one battle over a
// websocket. The connection closes after a terminal status or when the
// maximum wait elapses; creation itself never waits for mixing, so this
// is the notification channel clients use instead of polling.
func (h *APIHandler) BattleStatusHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	battleID := mux.Vars(r)["id"]
	if battleID == "" {
		return
	}

	deadline := time.Now().Add(statusMaxWait)
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		battle, err := h.loadBattle(r.Context(), battleID)
		if err != nil {
			logger.Warn("status poll failed",
				logger.String("battleId", battleID), logger.ErrorField(err))
			return
		}
		if battle == nil {
			conn.WriteJSON(mixStatus{BattleID: battleID, Status: "failed", MixError: "battle not found"})
			return
		}

		status := mixStatus{BattleID: battleID, Status: "processing"}
		switch {
		case battle.MixURL != "":
			status.Status = "ready"
			status.MixURL = battle.MixURL
		case battle.MixError != "":
			status.Status = "failed"
			status.MixError = battle.MixError
		}

		if err := conn.WriteJSON(status); err != nil {
			return
		}
		if status.Status != "processing" {
			return
		}
		if time.Now().After(deadline) {
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
