package docupload

import (
	"github.com/relayhr/doccapture/pkg/doccollect"
	"github.com/relayhr/doccapture/pkg/docquality"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// MaxFileSize is the upload size ceiling, enforced before any network
// activity.
const MaxFileSize = 10 << 20

// PreviewFactory builds the preview handle for a freshly created record.
type PreviewFactory func(id kernel.DocumentID, source doccollect.SourceFile) doccollect.PreviewHandle

// Options configures the orchestrator.
type Options struct {
	// MaxFileSize rejects larger files locally.
	MaxFileSize int64

	// StoragePrefix roots the per-session keys written to the filesystem.
	StoragePrefix string

	// Quality configures the assessor run on every accepted file.
	Quality []docquality.Option

	// Previews builds preview handles; nil leaves records without one.
	Previews PreviewFactory
}

func defaultOptions() Options {
	return Options{
		MaxFileSize:   MaxFileSize,
		StoragePrefix: "sessions",
	}
}

// Option mutates orchestrator options.
type Option func(*Options)

// WithMaxFileSize overrides the local size ceiling.
func WithMaxFileSize(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxFileSize = n
		}
	}
}

// WithStoragePrefix overrides the storage key root.
func WithStoragePrefix(prefix string) Option {
	return func(o *Options) { o.StoragePrefix = prefix }
}

// WithQualityOptions forwards assessor configuration.
func WithQualityOptions(opts ...docquality.Option) Option {
	return func(o *Options) { o.Quality = opts }
}

// WithPreviewFactory installs the preview handle builder.
func WithPreviewFactory(f PreviewFactory) Option {
	return func(o *Options) { o.Previews = f }
}
