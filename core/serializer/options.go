package serializer

import (
	"time"

	"github.com/rs/zerolog"
)

// Observer receives timing for serializer work. Implementations must be safe
// for concurrent use.
type Observer interface {
	// FormatDone is called once per Format call.
	FormatDone(resourceType string, d time.Duration, included int, err error)

	// RelationResolved is called once per relation resolution.
	RelationResolved(resourceType, relation string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) FormatDone(string, time.Duration, int, error)          {}
func (nopObserver) RelationResolved(string, string, time.Duration, error) {}

type options struct {
	registry       *Registry
	logger         zerolog.Logger
	observer       Observer
	concurrency    int
	selfLinks      bool
	includePrimary bool
}

func defaultOptions() options {
	return options{
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
}

// Option configures a Serializer.
type Option func(*options)

// WithRegistry sets the registry used to find nested serializers for
// relation targets. Without one, related resources carry type and id only.
func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver sets the timing observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithConcurrency bounds in-flight resolutions per fan-out. Zero or less
// means unbounded.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithSelfLinks adds links.self to every resource object.
func WithSelfLinks(enabled bool) Option {
	return func(o *options) { o.selfLinks = enabled }
}

// WithIncludePrimary keeps resources from primary data in included when
// they are also reached through an inclusion path. Off by default.
func WithIncludePrimary(enabled bool) Option {
	return func(o *options) { o.includePrimary = enabled }
}
