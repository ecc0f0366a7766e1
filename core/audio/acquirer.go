package audio

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// base64Marker separates the data-URI header from its payload.
const base64Marker = ";base64,"

// maxErrorBodyBytes caps how much of a failed response body is carried
// in a DownloadError for diagnostics.
const maxErrorBodyBytes = 2048

// Acquirer materializes any audio source reference as a scratch file,
// whether the source is a remote URL or an inline base64 payload.
type Acquirer struct {
	store   *ScratchStore
	client  *http.Client
	baseURL string
}

// NewAcquirer creates an acquirer. Relative source paths are resolved
// against baseURL, which lets beat assets be served by this service itself.
func NewAcquirer(store *ScratchStore, baseURL string, timeout time.Duration) *Acquirer {
	return &Acquirer{
		store:   store,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// resolveURL turns a possibly-relative source reference into an
// absolute URL.
func (a *Acquirer) resolveURL(raw string) string {
	u, err := url.Parse(raw)
	if err == nil && u.IsAbs() {
		return raw
	}
	return a.baseURL + "/" + strings.TrimLeft(raw, "/")
}

// FetchRemote downloads a remote audio resource into a scratch file and
// returns the handle owning it. A transport failure or non-2xx status
// yields a *DownloadError.
func (a *Acquirer) FetchRemote(ctx context.Context, rawURL, name string) (*AudioHandle, error) {
	fullURL := a.resolveURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, &DownloadError{URL: fullURL, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &DownloadError{URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, &DownloadError{URL: fullURL, Status: resp.StatusCode, Body: string(body)}
	}

	f, handle, err := a.store.Create(name, rawURL)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		handle.Release()
		return nil, &DownloadError{URL: fullURL, Err: fmt.Errorf("failed to write response body: %w", err)}
	}
	if err := f.Close(); err != nil {
		handle.Release()
		return nil, fmt.Errorf("failed to close scratch file %s: %w", handle.Path, err)
	}

	return handle, nil
}

// DecodeInline writes an inline base64 data-URI payload to a scratch
// file. A missing base64 marker is a caller error, reported as
// *InvalidPayloadError.
func (a *Acquirer) DecodeInline(dataURI, name string) (*AudioHandle, error) {
	idx := strings.Index(dataURI, base64Marker)
	if idx < 0 {
		return nil, &InvalidPayloadError{Reason: "no base64 data marker in payload"}
	}

	payload := dataURI[idx+len(base64Marker):]
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &InvalidPayloadError{Reason: fmt.Sprintf("base64 decode failed: %v", err)}
	}

	f, handle, err := a.store.Create(name, truncateRef(dataURI))
	if err != nil {
		return nil, err
	}

	if _, err := f.Write(decoded); err != nil {
		f.Close()
		handle.Release()
		return nil, fmt.Errorf("failed to write decoded payload to %s: %w", handle.Path, err)
	}
	if err := f.Close(); err != nil {
		handle.Release()
		return nil, fmt.Errorf("failed to close scratch file %s: %w", handle.Path, err)
	}

	return handle, nil
}

// truncateRef keeps handles from dragging a multi-megabyte data URI
// around as their source reference.
func truncateRef(ref string) string {
	const max = 64
	if len(ref) <= max {
		return ref
	}
	return ref[:max] + "..."
}

// IsInlinePayload reports whether a vocals reference is an inline data
// URI rather than a remote URL.
func IsInlinePayload(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// isRemoteRef reports whether a vocals reference should be fetched over
// HTTP: an absolute URL, or a path relative to the service base URL.
// Anything else is treated as an inline payload so that garbage input
// fails as a caller error instead of a phantom download attempt.
func isRemoteRef(ref string) bool {
	if IsInlinePayload(ref) {
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.IsAbs() {
		return true
	}
	return strings.HasPrefix(ref, "/")
}
