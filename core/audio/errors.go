package audio

import "fmt"

// Stage identifies which step of the mix pipeline an error came from.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageMix     Stage = "mix"
	StagePublish Stage = "publish"
)

// PreconditionError reports a battle that is missing a required audio
// reference. Not retryable: the record has nothing to mix.
type PreconditionError struct {
	BattleID string
	Missing  string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("battle %s: missing %s", e.BattleID, e.Missing)
}

// DownloadError reports a failed fetch of a remote audio source.
// Retryable: the source may come back.
type DownloadError struct {
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download audio from %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download audio from %s: status %d: %s", e.URL, e.Status, e.Body)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// InvalidPayloadError reports a malformed inline vocals payload.
// Not retryable: the caller supplied bad data.
type InvalidPayloadError struct {
	Reason string
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid audio payload: %s", e.Reason)
}

// MixingError reports a failed ffmpeg invocation, carrying the tool's
// diagnostic output. Retrying without fixing the environment is unlikely
// to help.
type MixingError struct {
	Output string
	Err    error
}

func (e *MixingError) Error() string {
	return fmt.Sprintf("ffmpeg mixing failed: %v: %s", e.Err, e.Output)
}

func (e *MixingError) Unwrap() error { return e.Err }

// PublishError reports a failed upload of the mixed output. Retryable.
type PublishError struct {
	Key string
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish mix to %s: %v", e.Key, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// StageError tags any pipeline failure with the stage and battle it
// belongs to.
type StageError struct {
	Stage    Stage
	BattleID string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("battle %s: %s stage: %v", e.BattleID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
