package audio

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFilterGraphDefaults(t *testing.T) {
	t.Parallel()

	got := filterGraph(DefaultMixOptions())
	want := "[0:a]volume=0.7[beat];[1:a]adelay=500:all=1,volume=1[vocals];[beat][vocals]amix=inputs=2:duration=longest:dropout_transition=2"
	require.Equal(t, want, got)
}

func TestFilterGraphCustomOptions(t *testing.T) {
	t.Parallel()

	got := filterGraph(MixOptions{
		BeatVolume:   0.5,
		VocalsVolume: 1.2,
		VocalsDelay:  2 * time.Second,
	})
	want := "[0:a]volume=0.5[beat];[1:a]adelay=2000:all=1,volume=1.2[vocals];[beat][vocals]amix=inputs=2:duration=longest:dropout_transition=2"
	require.Equal(t, want, got)
}

func TestMixArgs(t *testing.T) {
	t.Parallel()

	m := NewFFmpegMixer("ffmpeg", "192k", 0, NewScratchStore(t.TempDir()))
	args := m.mixArgs("/tmp/beat.mp3", "/tmp/vocals.mp3", "/tmp/mixed.mp3", DefaultMixOptions())

	require.Equal(t, []string{
		"-y",
		"-i", "/tmp/beat.mp3",
		"-i", "/tmp/vocals.mp3",
		"-filter_complex", filterGraph(DefaultMixOptions()),
		"-codec:a", "libmp3lame",
		"-b:a", "192k",
		"/tmp/mixed.mp3",
	}, args)
}

func TestMixOptionsValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultMixOptions().Validate())
	require.Error(t, MixOptions{BeatVolume: -0.1, VocalsVolume: 1}.Validate())
	require.Error(t, MixOptions{BeatVolume: 0.7, VocalsVolume: -1}.Validate())
	require.Error(t, MixOptions{BeatVolume: 0.7, VocalsVolume: 1, VocalsDelay: -time.Second}.Validate())
}

func TestMixRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := NewFFmpegMixer("ffmpeg", "192k", 0, NewScratchStore(dir))

	beat := &AudioHandle{Path: filepath.Join(dir, "beat.mp3")}
	vocals := &AudioHandle{Path: filepath.Join(dir, "vocals.mp3")}

	_, err := m.Mix(context.Background(), beat, vocals, "mixed-b1.mp3", MixOptions{BeatVolume: -1})
	require.Error(t, err)
}

func TestGetAudioDurationHonorsContext(t *testing.T) {
	t.Parallel()

	m := NewFFmpegMixer("ffmpeg", "192k", 0, NewScratchStore(t.TempDir()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.GetAudioDuration(ctx, "does-not-exist.mp3")
	require.Error(t, err)
}

func TestMixCommandFailureReleasesOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := NewScratchStore(dir)
	m := NewFFmpegMixer("false", "192k", 0, store)

	beat := &AudioHandle{Path: filepath.Join(dir, "beat.mp3")}
	vocals := &AudioHandle{Path: filepath.Join(dir, "vocals.mp3")}

	_, err := m.Mix(context.Background(), beat, vocals, "mixed-b2.mp3", DefaultMixOptions())
	require.Error(t, err)

	var mixErr *MixingError
	require.ErrorAs(t, err, &mixErr)

	_, statErr := os.Stat(filepath.Join(dir, "mixed-b2.mp3"))
	require.True(t, os.IsNotExist(statErr))
}
