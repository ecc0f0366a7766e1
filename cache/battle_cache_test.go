package cache

import (
	"encoding/json"
	"testing"
	"time"

	"VerseClash/model"

	"github.com/stretchr/testify/require"
)

func TestBattleRoundTripKeepsVocalsRef(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(7 * 24 * time.Hour).Truncate(time.Second)
	battle := &model.Battle{
		ID:        "b1",
		Topic:     "pirates vs ninjas",
		BeatURL:   "https://b/beat.mp3",
		VocalsRef: "data:audio/wav;base64,AAAA",
		ExpiresAt: &expires,
	}
	require.True(t, battle.HasAudioSources())

	data, err := marshalBattle(battle)
	require.NoError(t, err)

	got, err := unmarshalBattle(data)
	require.NoError(t, err)
	require.Equal(t, battle.VocalsRef, got.VocalsRef)
	require.True(t, got.HasAudioSources())
	require.Equal(t, battle.BeatURL, got.BeatURL)
	require.Equal(t, battle.Topic, got.Topic)
}

func TestAPIResponsesStillHideVocalsRef(t *testing.T) {
	t.Parallel()

	battle := &model.Battle{ID: "b1", VocalsRef: "data:audio/wav;base64,AAAA"}

	data, err := json.Marshal(battle)
	require.NoError(t, err)
	require.NotContains(t, string(data), "vocalsRef")
	require.NotContains(t, string(data), "AAAA")
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()

	require.Equal(t, "battle:b1", GetBattleKey("b1"))
	require.Equal(t, "battle:b1:mixlock", GetMixLockKey("b1"))
}
