package publisher

import (
	"context"
	"fmt"
)

// Publication is everything a platform needs to turn a post into a live
// artifact. The access token arrives already decrypted.
type Publication struct {
	AccountID   string
	AccessToken string
	MediaURL    string
	MediaKind   string // image or video
	Caption     string
}

type Result struct {
	PlatformPostID string
}

// Error is a publish failure with an explicit transient/permanent tag.
// Classification happens at the protocol boundary, never by matching
// message text.
type Error struct {
	Message   string
	Code      int
	Retryable bool
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code int, retryable bool, format string, args ...any) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		Code:      code,
		Retryable: retryable,
	}
}

// IsRetryable reports whether err carries the retryable tag. Untyped errors
// (transport failures wrapped by the caller) count as retryable.
func IsRetryable(err error) bool {
	if pe, ok := err.(*Error); ok {
		return pe.Retryable
	}
	return err != nil
}

type Publisher interface {
	Platform() string
	Publish(ctx context.Context, pub *Publication) (*Result, error)
}

// Registry resolves a Publisher by platform identifier so the engine never
// branches on platform names itself.
type Registry struct {
	publishers map[string]Publisher
}

func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{publishers: make(map[string]Publisher)}
	for _, p := range publishers {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Publisher) {
	r.publishers[p.Platform()] = p
}

func (r *Registry) Lookup(platform string) (Publisher, bool) {
	p, ok := r.publishers[platform]
	return p, ok
}
