package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"VerseClash/core/audio"

	"github.com/stretchr/testify/require"
)

func TestFileNameNamespacing(t *testing.T) {
	t.Parallel()

	require.Equal(t, "beat-abc123.mp3", audio.FileName("beat", "abc123", ".mp3"))
	require.Equal(t, "vocals-abc123.mp3", audio.FileName("vocals", "abc123", ".mp3"))

	// Two battles sharing the scratch directory never collide.
	require.NotEqual(t,
		audio.FileName("beat", "battle-1", ".mp3"),
		audio.FileName("beat", "battle-2", ".mp3"))
}

func TestScratchCreateAndRelease(t *testing.T) {
	t.Parallel()

	store := audio.NewScratchStore(t.TempDir())

	f, handle, err := store.Create("beat-b1.mp3", "http://example.com/beat.mp3")
	require.NoError(t, err)
	_, err = f.WriteString("audio bytes")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = os.Stat(handle.Path)
	require.NoError(t, err)

	handle.Release()
	_, err = os.Stat(handle.Path)
	require.True(t, os.IsNotExist(err))
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	store := audio.NewScratchStore(t.TempDir())

	f, handle, err := store.Create("mixed-b1.mp3", "mix")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	handle.Release()
	// A second release of the same handle must be a no-op, never a panic
	// or an error surfaced to the caller.
	handle.Release()
	handle.Release()
}

func TestReleaseOnNilHandle(t *testing.T) {
	t.Parallel()

	var handle *audio.AudioHandle
	handle.Release()
}

func TestReserveDoesNotCreateFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := audio.NewScratchStore(dir)

	handle, err := store.Reserve("mixed-b2.mp3", "mix")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "mixed-b2.mp3"), handle.Path)

	_, err = os.Stat(handle.Path)
	require.True(t, os.IsNotExist(err))

	// Releasing a reserved handle whose file was never written is fine.
	handle.Release()
}
