package audio_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"VerseClash/core/audio"

	"github.com/stretchr/testify/require"
)

type fakeMixer struct {
	store *audio.ScratchStore
	mu    sync.Mutex
	calls int
	err   error
}

func (m *fakeMixer) Mix(ctx context.Context, beat, vocals *audio.AudioHandle, outputName string, opts audio.MixOptions) (*audio.AudioHandle, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	f, handle, err := m.store.Create(outputName, "mix")
	if err != nil {
		return nil, err
	}
	f.WriteString("mixed output")
	f.Close()
	return handle, nil
}

type fakePublisher struct {
	mu          sync.Mutex
	calls       int
	err         error
	lastKey     string
	lastType    string
	returnedURL string
}

func (p *fakePublisher) Publish(ctx context.Context, localPath, key, contentType string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.lastKey = key
	p.lastType = contentType
	p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return p.returnedURL, nil
}

type fakeProber struct {
	duration float32
	err      error
}

func (p *fakeProber) GetAudioDuration(ctx context.Context, path string) (float32, error) {
	return p.duration, p.err
}

func inlineVocals(payload string) string {
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

type pipelineFixture struct {
	pipeline  *audio.Pipeline
	mixer     *fakeMixer
	publisher *fakePublisher
	dir       string
}

func newPipelineFixture(t *testing.T, baseURL string) *pipelineFixture {
	t.Helper()
	dir := t.TempDir()
	store := audio.NewScratchStore(dir)
	mixer := &fakeMixer{store: store}
	publisher := &fakePublisher{returnedURL: "https://cdn.example.com/battles/b1/mixed.mp3"}
	acquirer := audio.NewAcquirer(store, baseURL, 0)
	return &pipelineFixture{
		pipeline:  audio.NewPipeline(acquirer, mixer, publisher),
		mixer:     mixer,
		publisher: publisher,
		dir:       dir,
	}
}

func TestProcessFullBattleSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)
	fx.pipeline.WithProber(&fakeProber{duration: 42.5})

	result, err := fx.pipeline.ProcessFullBattle(context.Background(), "b1", srv.URL+"/beat.mp3", inlineVocals("vocal data"))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/battles/b1/mixed.mp3", result.URL)
	require.Equal(t, float32(42.5), result.Duration)

	require.Equal(t, 1, fx.mixer.calls)
	require.Equal(t, 1, fx.publisher.calls)
	require.Equal(t, "battles/b1/mixed.mp3", fx.publisher.lastKey)
	require.Equal(t, audio.MixedContentType, fx.publisher.lastType)

	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleRemoteVocals(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)

	result, err := fx.pipeline.ProcessFullBattle(context.Background(), "b1r", srv.URL+"/beat.mp3", srv.URL+"/vocals.mp3")
	require.NoError(t, err)
	require.NotEmpty(t, result.URL)

	require.Equal(t, 1, fx.mixer.calls)
	require.Equal(t, 1, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleMissingSources(t *testing.T) {
	t.Parallel()

	fx := newPipelineFixture(t, "http://localhost")

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b2", "", inlineVocals("v"))
	var preErr *audio.PreconditionError
	require.ErrorAs(t, err, &preErr)
	require.Equal(t, "b2", preErr.BattleID)

	_, err = fx.pipeline.ProcessFullBattle(context.Background(), "b2", "http://localhost/beat.mp3", "")
	require.ErrorAs(t, err, &preErr)

	require.Zero(t, fx.mixer.calls)
	require.Zero(t, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleInvalidVocalsPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b3", srv.URL+"/beat.mp3", "data:audio/wav;base64,@@@bad@@@")
	require.Error(t, err)

	var stageErr *audio.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, audio.StageAcquire, stageErr.Stage)

	var payloadErr *audio.InvalidPayloadError
	require.ErrorAs(t, err, &payloadErr)

	require.Zero(t, fx.mixer.calls)
	require.Zero(t, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleVocalsRefNeitherURLNorDataURI(t *testing.T) {
	t.Parallel()

	var vocalsFetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "not-a-data-uri") {
			atomic.AddInt32(&vocalsFetches, 1)
		}
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b7", srv.URL+"/beat.mp3", "not-a-data-uri")
	require.Error(t, err)

	var stageErr *audio.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, audio.StageAcquire, stageErr.Stage)

	var payloadErr *audio.InvalidPayloadError
	require.ErrorAs(t, err, &payloadErr)

	require.Zero(t, atomic.LoadInt32(&vocalsFetches))
	require.Zero(t, fx.mixer.calls)
	require.Zero(t, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleBeatDownloadFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b4", srv.URL+"/beat.mp3", inlineVocals("vocal data"))
	require.Error(t, err)

	var stageErr *audio.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, audio.StageAcquire, stageErr.Stage)

	var dlErr *audio.DownloadError
	require.ErrorAs(t, err, &dlErr)
	require.Equal(t, http.StatusNotFound, dlErr.Status)

	require.Zero(t, fx.mixer.calls)
	require.Zero(t, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleMixFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)
	fx.mixer.err = errors.New("ffmpeg exploded")

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b5", srv.URL+"/beat.mp3", inlineVocals("vocal data"))
	require.Error(t, err)

	var stageErr *audio.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, audio.StageMix, stageErr.Stage)

	require.Zero(t, fx.publisher.calls)
	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattlePublishFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)
	fx.publisher.err = errors.New("bucket unreachable")

	_, err := fx.pipeline.ProcessFullBattle(context.Background(), "b6", srv.URL+"/beat.mp3", inlineVocals("vocal data"))
	require.Error(t, err)

	var stageErr *audio.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, audio.StagePublish, stageErr.Stage)

	var pubErr *audio.PublishError
	require.ErrorAs(t, err, &pubErr)
	require.Equal(t, "battles/b6/mixed.mp3", pubErr.Key)

	assertDirEmpty(t, fx.dir)
}

func TestProcessFullBattleConcurrentBattles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("beat data"))
	}))
	defer srv.Close()

	fx := newPipelineFixture(t, srv.URL)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			battleID := fmt.Sprintf("concurrent-%d", i)
			_, errs[i] = fx.pipeline.ProcessFullBattle(context.Background(),
				battleID, srv.URL+"/beat.mp3", inlineVocals("vocal data"))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assertDirEmpty(t, fx.dir)
}

func TestMixedObjectKeyDeterministic(t *testing.T) {
	t.Parallel()

	require.Equal(t, "battles/abc/mixed.mp3", audio.MixedObjectKey("abc"))
	require.Equal(t, audio.MixedObjectKey("abc"), audio.MixedObjectKey("abc"))
}
