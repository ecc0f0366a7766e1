package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"VerseClash/logger"
)

// MixOptions are the tunable parameters of the mix filter graph.
type MixOptions struct {
	BeatVolume   float64       // linear gain on the instrumental
	VocalsVolume float64       // linear gain on the vocal track
	VocalsDelay  time.Duration // how much later the vocals start relative to the beat
}

// DefaultMixOptions returns the standard battle mix: beat ducked to 0.7,
// vocals at unity, half a second of beat lead-in before the voice starts.
func DefaultMixOptions() MixOptions {
	return MixOptions{
		BeatVolume:   0.7,
		VocalsVolume: 1.0,
		VocalsDelay:  500 * time.Millisecond,
	}
}

// Validate rejects option values the filter graph cannot express.
func (o MixOptions) Validate() error {
	if o.BeatVolume < 0 {
		return fmt.Errorf("beat volume must be non-negative, got %g", o.BeatVolume)
	}
	if o.VocalsVolume < 0 {
		return fmt.Errorf("vocals volume must be non-negative, got %g", o.VocalsVolume)
	}
	if o.VocalsDelay < 0 {
		return fmt.Errorf("vocals delay must be non-negative, got %s", o.VocalsDelay)
	}
	return nil
}

// Mixer combines two scratch audio files into one mixed scratch file.
type Mixer interface {
	Mix(ctx context.Context, beat, vocals *AudioHandle, outputName string, opts MixOptions) (*AudioHandle, error)
}

// FFmpegMixer implements Mixer by shelling out to ffmpeg.
type FFmpegMixer struct {
	ffmpegPath string
	bitrate    string
	timeout    time.Duration
	store      *ScratchStore
}

// NewFFmpegMixer creates a new FFmpegMixer.
func NewFFmpegMixer(ffmpegPath, bitrate string, timeout time.Duration, store *ScratchStore) *FFmpegMixer {
	return &FFmpegMixer{
		ffmpegPath: ffmpegPath,
		bitrate:    bitrate,
		timeout:    timeout,
		store:      store,
	}
}

// filterGraph builds the two-input filter graph. The graph is pinned for
// audible-output compatibility: independent gain per input, vocals
// delayed identically on every channel, amix running until the longer
// input ends with a 2s dropout transition at the tail.
func filterGraph(opts MixOptions) string {
	delayMs := opts.VocalsDelay.Milliseconds()
	return fmt.Sprintf(
		"[0:a]volume=%g[beat];[1:a]adelay=%d:all=1,volume=%g[vocals];[beat][vocals]amix=inputs=2:duration=longest:dropout_transition=2",
		opts.BeatVolume, delayMs, opts.VocalsVolume)
}

// mixArgs builds the full ffmpeg argument list for one mix invocation.
func (m *FFmpegMixer) mixArgs(beatPath, vocalsPath, outputPath string, opts MixOptions) []string {
	return []string{
		"-y",
		"-i", beatPath,
		"-i", vocalsPath,
		"-filter_complex", filterGraph(opts),
		"-codec:a", "libmp3lame",
		"-b:a", m.bitrate,
		outputPath,
	}
}

// Mix combines the beat and vocals handles into a new mixed scratch
// file and returns the handle owning it. Any non-zero exit is fatal for
// this attempt; the caller may retry the whole pipeline later.
func (m *FFmpegMixer) Mix(ctx context.Context, beat, vocals *AudioHandle, outputName string, opts MixOptions) (*AudioHandle, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mix options: %w", err)
	}

	out, err := m.store.Reserve(outputName, "mix")
	if err != nil {
		return nil, err
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	args := m.mixArgs(beat.Path, vocals.Path, out.Path, opts)
	cmd := exec.CommandContext(ctx, m.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Executing ffmpeg",
		logger.String("path", m.ffmpegPath),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		out.Release()
		return nil, &MixingError{Output: stderr.String(), Err: err}
	}

	return out, nil
}

var _ Mixer = (*FFmpegMixer)(nil)
