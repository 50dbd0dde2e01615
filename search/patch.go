package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-crm/internal/logging"
	"github.com/goliatone/go-crm/pkg/interfaces"
)

// SourceConfig mirrors the mutable request section of a lookup widget's
// configuration: the endpoint it queries and the function that builds the
// outgoing parameters. The widget library owns the values; this package only
// rewrites Params.
type SourceConfig struct {
	URL    string
	Params ParamsFunc
}

// Config is a widget's configuration object. Source is nil when the widget
// was initialized without a network-request section, in which case there is
// nothing to augment.
type Config struct {
	Source *SourceConfig
}

// Widget represents one rendered lookup control bound to a form field. The
// patched marker lives on the instance itself so it shares the instance's
// lifecycle and needs no external bookkeeping. Host surfaces may swap the
// configuration on re-render; SetConfig keeps that safe against deferred
// patch attempts.
type Widget struct {
	Field string

	mu      sync.Mutex
	config  *Config
	patched bool
}

// NewWidget binds a widget instance to a form field with its initial
// configuration, which may be nil until the host finishes rendering.
func NewWidget(field string, cfg *Config) *Widget {
	return &Widget{Field: field, config: cfg}
}

// SetConfig replaces the widget configuration, as happens when the host
// surface re-initializes the control.
func (w *Widget) SetConfig(cfg *Config) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.config = cfg
	w.mu.Unlock()
}

// Patched reports whether the widget's parameter function has already been
// wrapped.
func (w *Widget) Patched() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.patched
}

// BuildParams runs the widget's current parameter function, standing in for
// the widget library firing a request. Widgets without a request section
// send the input unchanged.
func (w *Widget) BuildParams(params Params) Params {
	if w == nil {
		return params
	}
	w.mu.Lock()
	var fn ParamsFunc
	if w.config != nil && w.config.Source != nil {
		fn = w.config.Source.Params
	}
	w.mu.Unlock()

	if fn == nil {
		return params
	}
	return fn(params)
}

func (w *Widget) install(key string, supply Supplier) bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.patched {
		return false
	}
	if w.config == nil || w.config.Source == nil {
		return false
	}
	w.config.Source.Params = Augment(w.config.Source.Params, key, supply)
	w.patched = true
	return true
}

// ContextBinder is implemented by widget integrations that accept contextual
// parameter suppliers natively. Targets that support it bypass the generic
// configuration rewrite entirely, keeping the fragile option-poking behind
// this single contract.
type ContextBinder interface {
	BindContextSupplier(key string, supply Supplier)
}

// DefaultRetryDelays are the fixed delays used by ApplyDeferred when the host
// surface re-renders widgets asynchronously. Two attempts, no backoff policy
// beyond that.
var DefaultRetryDelays = []time.Duration{500 * time.Millisecond, 2 * time.Second}

// PatcherOption mutates a Patcher during construction.
type PatcherOption func(*Patcher)

// WithLogger sets the logger used for the missing-target warning.
func WithLogger(logger interfaces.Logger) PatcherOption {
	return func(p *Patcher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Patcher installs contextual parameter augmentation on widget instances at
// most once per instance. Construct one per widget-library handle instead of
// reaching for ambient globals.
type Patcher struct {
	logger interfaces.Logger

	mu     sync.Mutex
	warned bool
}

// NewPatcher returns a Patcher with a no-op logger unless one is provided.
func NewPatcher(opts ...PatcherOption) *Patcher {
	p := &Patcher{logger: logging.NoOp()}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Apply wraps the target's parameter function so supply's value is merged
// under key on every outgoing request. It reports whether the augmentation
// was installed by this call.
//
// Every precondition failure degrades silently to unfiltered behavior: a nil
// target (logged once, informational), a target without configuration, a
// configuration without a request section, or a widget that is already
// patched all leave the target untouched.
func (p *Patcher) Apply(target any, key string, supply Supplier) bool {
	if p == nil {
		return false
	}
	if target == nil {
		p.warnMissing()
		return false
	}
	if strings.TrimSpace(key) == "" || supply == nil {
		return false
	}

	if binder, ok := target.(ContextBinder); ok {
		binder.BindContextSupplier(key, supply)
		return true
	}

	widget, ok := target.(*Widget)
	if !ok {
		return false
	}
	return widget.install(key, supply)
}

// ApplyDeferred retries Apply at the given fixed delays (DefaultRetryDelays
// when none are supplied) to tolerate asynchronous re-rendering by the host
// surface. The attempts are fire-and-forget; cancelling the context stops any
// remaining ones. The widget-level guard keeps repeated attempts harmless.
func (p *Patcher) ApplyDeferred(ctx context.Context, target any, key string, supply Supplier, delays ...time.Duration) {
	if p == nil {
		return
	}
	if p.Apply(target, key, supply) {
		return
	}
	if len(delays) == 0 {
		delays = DefaultRetryDelays
	}
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		for _, delay := range delays {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if p.Apply(target, key, supply) {
				return
			}
		}
	}()
}

func (p *Patcher) warnMissing() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warned {
		return
	}
	p.logger.Warn("search widget handle missing, contextual filtering inactive")
	p.warned = true
}
