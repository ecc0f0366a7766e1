package audio

import (
	"context"
	"fmt"
	"sync"

	"VerseClash/logger"
)

// MixedContentType is the MIME type of the published mix artifact.
const MixedContentType = "audio/mpeg"

// MixedObjectKey returns the deterministic blob key for a battle's mix.
// Repeated publication for the same battle overwrites rather than
// accumulates.
func MixedObjectKey(battleID string) string {
	return fmt.Sprintf("battles/%s/mixed.mp3", battleID)
}

// Publisher moves a local file into durable storage and mints a stable,
// fetchable URL for it.
type Publisher interface {
	Publish(ctx context.Context, localPath, key, contentType string) (string, error)
}

// DurationProber reports the duration of a local audio file in seconds.
type DurationProber interface {
	GetAudioDuration(ctx context.Context, path string) (float32, error)
}

// MixResult is the outcome of one successful pipeline run.
type MixResult struct {
	URL      string
	Duration float32 // seconds; zero when probing was unavailable
}

// Pipeline composes Acquirer, Mixer and Publisher for one battle and
// guarantees every scratch file it creates is released on every exit
// path.
type Pipeline struct {
	acquirer  *Acquirer
	mixer     Mixer
	publisher Publisher
	prober    DurationProber // optional
	opts      MixOptions
}

// NewPipeline creates a pipeline with default mix options.
func NewPipeline(acquirer *Acquirer, mixer Mixer, publisher Publisher) *Pipeline {
	return &Pipeline{
		acquirer:  acquirer,
		mixer:     mixer,
		publisher: publisher,
		opts:      DefaultMixOptions(),
	}
}

// WithProber attaches a duration prober; the mixed output's duration is
// then reported in the MixResult.
func (p *Pipeline) WithProber(prober DurationProber) *Pipeline {
	p.prober = prober
	return p
}

// WithOptions overrides the default mix options.
func (p *Pipeline) WithOptions(opts MixOptions) *Pipeline {
	p.opts = opts
	return p
}

// ProcessFullBattle acquires the beat and vocals concurrently, mixes
// them, publishes the result under the battle's deterministic key and
// returns the published URL. The first error encountered aborts the
// run, tagged with the stage that produced it; cleanup of scratch files
// runs unconditionally.
func (p *Pipeline) ProcessFullBattle(ctx context.Context, battleID, beatURL, vocalsRef string) (*MixResult, error) {
	if beatURL == "" {
		return nil, &PreconditionError{BattleID: battleID, Missing: "beat reference"}
	}
	if vocalsRef == "" {
		return nil, &PreconditionError{BattleID: battleID, Missing: "vocals reference"}
	}

	// The two acquisitions are independent; fetch them concurrently.
	var (
		wg           sync.WaitGroup
		beatHandle   *AudioHandle
		vocalsHandle *AudioHandle
		beatErr      error
		vocalsErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		beatHandle, beatErr = p.acquirer.FetchRemote(ctx, beatURL, FileName("beat", battleID, ".mp3"))
	}()
	go func() {
		defer wg.Done()
		vocalsName := FileName("vocals", battleID, ".mp3")
		if isRemoteRef(vocalsRef) {
			vocalsHandle, vocalsErr = p.acquirer.FetchRemote(ctx, vocalsRef, vocalsName)
		} else {
			vocalsHandle, vocalsErr = p.acquirer.DecodeInline(vocalsRef, vocalsName)
		}
	}()
	wg.Wait()

	// From here on, both handles are released on every exit path,
	// including the case where only one acquisition succeeded.
	defer beatHandle.Release()
	defer vocalsHandle.Release()

	if beatErr != nil {
		return nil, &StageError{Stage: StageAcquire, BattleID: battleID, Err: beatErr}
	}
	if vocalsErr != nil {
		return nil, &StageError{Stage: StageAcquire, BattleID: battleID, Err: vocalsErr}
	}

	mixed, err := p.mixer.Mix(ctx, beatHandle, vocalsHandle, FileName("mixed", battleID, ".mp3"), p.opts)
	if err != nil {
		return nil, &StageError{Stage: StageMix, BattleID: battleID, Err: err}
	}
	defer mixed.Release()

	result := &MixResult{}
	if p.prober != nil {
		duration, err := p.prober.GetAudioDuration(ctx, mixed.Path)
		if err != nil {
			logger.Warn("Could not probe mixed output duration",
				logger.String("battleId", battleID),
				logger.ErrorField(err))
		} else {
			result.Duration = duration
		}
	}

	key := MixedObjectKey(battleID)
	url, err := p.publisher.Publish(ctx, mixed.Path, key, MixedContentType)
	if err != nil {
		return nil, &StageError{Stage: StagePublish, BattleID: battleID, Err: &PublishError{Key: key, Err: err}}
	}

	result.URL = url
	return result, nil
}
