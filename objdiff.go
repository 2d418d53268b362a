package objdiff

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/signadot/objdiff/changeset"
	"github.com/signadot/objdiff/listdiff"
	"github.com/signadot/objdiff/shape"
	"github.com/signadot/objdiff/walk"
)

type (
	ChangeSet               = changeset.ChangeSet
	Change                  = changeset.Change
	UnsupportedShapeError   = shape.UnsupportedShapeError
	TagError                = shape.TagError
	ComparisonTooLargeError = listdiff.ComparisonTooLargeError
)

// ErrBadConfig is wrapped by the errors New returns for invalid options.
var ErrBadConfig = errors.New("bad configuration")

// Config holds the options of a Differ.
type Config struct {
	// ListAlgorithm applies to sequence fields without an algorithm of
	// their own. The zero value means listdiff.Positional.
	ListAlgorithm         listdiff.Algorithm
	MaxEditDistanceLength int
	Log                   *slog.Logger
	Resolver              *shape.Resolver
	Types                 []reflect.Type

	errs []error
}

type Option func(*Config)

func WithListAlgorithm(a listdiff.Algorithm) Option {
	return func(c *Config) {
		c.ListAlgorithm = a
	}
}

// WithListAlgorithmName is WithListAlgorithm with the algorithm given by
// name, as accepted by listdiff.ParseAlgorithm.
func WithListAlgorithmName(name string) Option {
	return func(c *Config) {
		a, err := listdiff.ParseAlgorithm(name)
		if err != nil {
			c.errs = append(c.errs, err)
			return
		}
		c.ListAlgorithm = a
	}
}

// WithMaxEditDistanceLength bounds the length of the differing part of
// sequences compared by edit distance.
func WithMaxEditDistanceLength(n int) Option {
	return func(c *Config) {
		c.MaxEditDistanceLength = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Log = l
	}
}

// WithResolver shares a descriptor resolver, and its registered manifests,
// between differs.
func WithResolver(r *shape.Resolver) Option {
	return func(c *Config) {
		c.Resolver = r
	}
}

// WithTypes resolves the types of the given values when the Differ is
// created, so that malformed tags are reported by New.
func WithTypes(vs ...any) Option {
	return func(c *Config) {
		for _, v := range vs {
			t, ok := v.(reflect.Type)
			if !ok {
				t = reflect.TypeOf(v)
			}
			c.Types = append(c.Types, t)
		}
	}
}

// Differ compares object graphs. A Differ is safe for concurrent use.
type Differ struct {
	cfg walk.Config
	log *slog.Logger
}

// New validates opts and returns a Differ.
func New(opts ...Option) (*Differ, error) {
	cfg := &Config{
		ListAlgorithm:         listdiff.Positional,
		MaxEditDistanceLength: listdiff.DefaultMaxEditDistanceLength,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.errs) != 0 {
		return nil, fmt.Errorf("%w: %w", ErrBadConfig, errors.Join(cfg.errs...))
	}
	if cfg.ListAlgorithm == listdiff.Default {
		cfg.ListAlgorithm = listdiff.Positional
	}
	if !cfg.ListAlgorithm.Valid() {
		return nil, fmt.Errorf("%w: invalid list algorithm %s", ErrBadConfig, cfg.ListAlgorithm)
	}
	if cfg.MaxEditDistanceLength <= 0 {
		return nil, fmt.Errorf("%w: max edit distance length must be positive, got %d", ErrBadConfig, cfg.MaxEditDistanceLength)
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Resolver == nil {
		cfg.Resolver = shape.NewResolver(shape.WithLogger(cfg.Log))
	}
	for _, t := range cfg.Types {
		if t == nil {
			return nil, fmt.Errorf("%w: nil has no type", ErrBadConfig)
		}
		if _, err := cfg.Resolver.Resolve(t); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadConfig, err)
		}
	}
	return &Differ{
		cfg: walk.Config{
			Resolver:              cfg.Resolver,
			DefaultAlgorithm:      cfg.ListAlgorithm,
			MaxEditDistanceLength: cfg.MaxEditDistanceLength,
			Log:                   cfg.Log,
		},
		log: cfg.Log,
	}, nil
}

// Resolver returns the descriptor resolver of d.
func (d *Differ) Resolver() *shape.Resolver {
	return d.cfg.Resolver
}

// Compare compares old and new. Either may be nil, in which case every
// compared field of the other is reported. On error the change set is nil.
func (d *Differ) Compare(old, new any) (*ChangeSet, error) {
	start := time.Now()
	cs, err := walk.Compare(d.cfg, old, new)
	duration.Observe(time.Since(start).Seconds())
	if err != nil {
		comparisons.WithLabelValues("error").Inc()
		d.log.Debug("comparison failed", "error", err)
		return nil, err
	}
	if cs.HasChanges() {
		comparisons.WithLabelValues("changed").Inc()
	} else {
		comparisons.WithLabelValues("unchanged").Inc()
	}
	changeCount.Observe(float64(cs.Len()))
	d.log.Debug("compared", "changes", cs.Len(), "elapsed", time.Since(start))
	return cs, nil
}

// Compare compares old and new with a Differ built from opts.
func Compare(old, new any, opts ...Option) (*ChangeSet, error) {
	d, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return d.Compare(old, new)
}
