package importer

import (
	"errors"
	"fmt"
)

var (
	ErrNoVideosProcessed = errors.New("no videos processed")
	ErrMissingVideoID    = errors.New("playlist item has no video id")
	ErrDuplicateVideoID  = errors.New("video already in playlist")
)

type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonQuotaExceeded Reason = "quota_exceeded"
	ReasonInvalidKey    Reason = "invalid_key"
	ReasonUpstream      Reason = "upstream"
)

// UpstreamError is any failure talking to the video platform. It always aborts the import.
type UpstreamError struct {
	Reason Reason
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("youtube %s failed (%s): %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("youtube %s failed (%s)", e.Op, e.Reason)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func asUpstream(op string, err error) error {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	return &UpstreamError{Reason: ReasonUpstream, Op: op, Err: err}
}
