package fileset

import (
	"maps"

	"go.uber.org/zap"
)

// Options configures a Workspace.
type Options struct {
	// BlobDir is the content store directory. Defaults to a tracked
	// process-scoped directory removed on Close.
	BlobDir string

	// CacheDir is the persistent cache root for AddCached. Supply one to
	// share cache entries across processes and runs; the default is a
	// process-scoped directory removed on Close.
	CacheDir string

	// ScratchDir is the parent for staging and merge output. Defaults to
	// the system temp directory.
	ScratchDir string

	// Logger receives merge conflict warnings. Defaults to a no-op logger.
	Logger *zap.SugaredLogger

	// Concurrency bounds parallel hashing during Add. Defaults to
	// DefaultConcurrency.
	Concurrency int

	// HashCacheSize bounds the store's rehash-avoidance cache.
	HashCacheSize int

	// CacheLocking guards AddCached's check-and-promote with a file lock so
	// concurrent callers of one key, even across processes, run the
	// producer once. On by default; without it concurrent callers may race
	// and best-effort deduplication applies.
	CacheLocking bool
}

// DefaultConcurrency is the default parallelism for content hashing.
const DefaultConcurrency = 8

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Concurrency:  DefaultConcurrency,
		CacheLocking: true,
	}
}

// WithBlobDir sets the content store directory.
func WithBlobDir(dir string) Option {
	return func(o *Options) { o.BlobDir = dir }
}

// WithCacheDir sets the persistent cache root.
func WithCacheDir(dir string) Option {
	return func(o *Options) { o.CacheDir = dir }
}

// WithScratchDir sets the parent directory for staging output.
func WithScratchDir(dir string) Option {
	return func(o *Options) { o.ScratchDir = dir }
}

// WithLogger sets the logger used for merge conflict warnings.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithConcurrency sets the number of parallel hashing operations.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithHashCacheSize sets the store's rehash-avoidance cache size.
func WithHashCacheSize(n int) Option {
	return func(o *Options) { o.HashCacheSize = n }
}

// WithoutCacheLocking disables the cross-process cache lock. Concurrent
// AddCached calls for one key may then invoke the producer more than once.
func WithoutCacheLocking() Option {
	return func(o *Options) { o.CacheLocking = false }
}

// AddOptions configures a single Add or AddCached call.
type AddOptions struct {
	include []Matcher
	exclude []Matcher
	mergers []Merger
	meta    map[string]string
}

// AddOption is a functional option for Add and AddCached.
type AddOption func(*AddOptions)

func newAddOptions(opts []AddOption) *AddOptions {
	o := &AddOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithInclude restricts the add to paths matching at least one matcher.
// Exclude patterns take precedence over includes.
func WithInclude(matchers ...Matcher) AddOption {
	return func(o *AddOptions) { o.include = append(o.include, matchers...) }
}

// WithExclude skips paths matching any matcher.
func WithExclude(matchers ...Matcher) AddOption {
	return func(o *AddOptions) { o.exclude = append(o.exclude, matchers...) }
}

// WithMerger appends a pattern/merge pair consulted when an added path
// already exists in the tree. First matching pattern wins.
func WithMerger(pattern Matcher, merge MergeFunc) AddOption {
	return func(o *AddOptions) {
		o.mergers = append(o.mergers, Merger{Pattern: pattern, Merge: merge})
	}
}

// WithMeta attaches key/value metadata to every entry this add creates.
func WithMeta(meta map[string]string) AddOption {
	return func(o *AddOptions) {
		if o.meta == nil {
			o.meta = make(map[string]string, len(meta))
		}
		maps.Copy(o.meta, meta)
	}
}
