// Package fetcher defines the Resolver and Fetcher collaborator contracts
// the task pipeline consumes, plus the yt-dlp-backed implementation.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrResolution marks a bad or unreachable source URL. It is
// user-correctable and surfaced as a client error by the HTTP layer.
var ErrResolution = errors.New("unable to resolve media url")

// FetchError wraps any failure during transfer or post-processing. It ends
// up as the task's failure cause, never as a crash.
type FetchError struct {
	Cause string
	Err   error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %s: %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("fetch failed: %s", e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatVariant is one downloadable quality option.
type FormatVariant struct {
	Label    string
	Height   int
	Ext      string
	Filesize int64
}

// Metadata is the resolver's view of a remote URL.
type Metadata struct {
	VideoID   string
	Title     string
	Channel   string
	Thumbnail string
	Duration  time.Duration
	Variants  []FormatVariant
}

// Resolver turns a canonical URL into metadata and a format catalog.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*Metadata, error)
}

// Hooks carries the progress callbacks a fetch invokes. OnProgress receives
// byte counts; total <= 0 means the total is unknown and the caller keeps
// its last progress value. OnTransferComplete fires once when the raw
// transfer finishes and post-processing begins.
type Hooks struct {
	OnProgress         func(downloaded, total int64)
	OnTransferComplete func()
}

// Result is the fetcher's final report for a completed transfer.
type Result struct {
	VideoID    string
	Title      string
	Duration   time.Duration
	StagedPath string
}

// Fetcher produces one staged file on disk for a URL and format spec,
// reporting progress along the way. Blocking for the whole transfer is
// expected; callers run it on a background worker.
type Fetcher interface {
	Fetch(ctx context.Context, url string, spec FormatSpec, outputTemplate string, hooks Hooks) (*Result, error)
}
