package audio_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"VerseClash/core/audio"

	"github.com/stretchr/testify/require"
)

func newTestAcquirer(t *testing.T, baseURL string) (*audio.Acquirer, string) {
	t.Helper()
	dir := t.TempDir()
	store := audio.NewScratchStore(dir)
	return audio.NewAcquirer(store, baseURL, 5*time.Second), dir
}

func TestFetchRemoteSuccess(t *testing.T) {
	t.Parallel()

	body := []byte("fake mp3 bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	acquirer, _ := newTestAcquirer(t, srv.URL)

	handle, err := acquirer.FetchRemote(context.Background(), srv.URL+"/beat.mp3", "beat-b1.mp3")
	require.NoError(t, err)
	defer handle.Release()

	got, err := os.ReadFile(handle.Path)
	require.NoError(t, err)
	require.Equal(t, body, got)
	require.Equal(t, srv.URL+"/beat.mp3", handle.SourceRef)
}

func TestFetchRemoteResolvesRelativePath(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/beats/heavy.mp3", r.URL.Path)
		w.Write([]byte("beat"))
	}))
	defer srv.Close()

	acquirer, _ := newTestAcquirer(t, srv.URL)

	handle, err := acquirer.FetchRemote(context.Background(), "/beats/heavy.mp3", "beat-b2.mp3")
	require.NoError(t, err)
	handle.Release()
}

func TestFetchRemoteNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such beat", http.StatusNotFound)
	}))
	defer srv.Close()

	acquirer, dir := newTestAcquirer(t, srv.URL)

	_, err := acquirer.FetchRemote(context.Background(), srv.URL+"/missing.mp3", "beat-b3.mp3")
	require.Error(t, err)

	var dlErr *audio.DownloadError
	require.ErrorAs(t, err, &dlErr)
	require.Equal(t, http.StatusNotFound, dlErr.Status)
	require.Contains(t, dlErr.Body, "no such beat")

	assertDirEmpty(t, dir)
}

func TestFetchRemoteTransportFailure(t *testing.T) {
	t.Parallel()

	acquirer, dir := newTestAcquirer(t, "http://127.0.0.1:1")

	_, err := acquirer.FetchRemote(context.Background(), "http://127.0.0.1:1/beat.mp3", "beat-b4.mp3")
	require.Error(t, err)

	var dlErr *audio.DownloadError
	require.ErrorAs(t, err, &dlErr)

	assertDirEmpty(t, dir)
}

func TestDecodeInlineRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte("RIFF....WAVEfmt fake wav content")
	dataURI := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(payload)

	acquirer, _ := newTestAcquirer(t, "http://localhost")

	handle, err := acquirer.DecodeInline(dataURI, "vocals-b1.mp3")
	require.NoError(t, err)
	defer handle.Release()

	got, err := os.ReadFile(handle.Path)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestDecodeInlineMissingMarker(t *testing.T) {
	t.Parallel()

	acquirer, dir := newTestAcquirer(t, "http://localhost")

	_, err := acquirer.DecodeInline("not-a-data-uri", "vocals-b2.mp3")
	require.Error(t, err)

	var payloadErr *audio.InvalidPayloadError
	require.ErrorAs(t, err, &payloadErr)

	assertDirEmpty(t, dir)
}

func TestDecodeInlineBadBase64(t *testing.T) {
	t.Parallel()

	acquirer, dir := newTestAcquirer(t, "http://localhost")

	_, err := acquirer.DecodeInline("data:audio/wav;base64,!!!not-base64!!!", "vocals-b3.mp3")
	require.Error(t, err)

	var payloadErr *audio.InvalidPayloadError
	require.ErrorAs(t, err, &payloadErr)

	assertDirEmpty(t, dir)
}

func TestIsInlinePayload(t *testing.T) {
	t.Parallel()

	require.True(t, audio.IsInlinePayload("data:audio/wav;base64,AAAA"))
	require.False(t, audio.IsInlinePayload("https://example.com/vocals.mp3"))
	require.False(t, audio.IsInlinePayload("/relative/vocals.mp3"))
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	require.Empty(t, entries)
}
