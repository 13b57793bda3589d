// Package compat decides whether a renderer device slot is usable.
//
// Classification runs a fixed pipeline: probe the slot with a trial session,
// veto devices missing from the allowlist (when requested), then veto
// denylisted devices. Every failure folds into an Outcome; nothing is
// returned as an error.
package compat

import (
	"context"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/tsukumogami/rprcheck/internal/device"
	"github.com/tsukumogami/rprcheck/internal/log"
	"github.com/tsukumogami/rprcheck/internal/platform"
	"github.com/tsukumogami/rprcheck/internal/probe"
	"github.com/tsukumogami/rprcheck/internal/rules"
	"golang.org/x/sync/errgroup"
)

// Settings are the inputs shared by every slot in a classification.
type Settings struct {
	// Plugins are the registered renderer plugins to probe with.
	Plugins []probe.PluginID
	// CachePath is passed to the runtime for its kernel cache.
	CachePath string
	// OS selects OS-conditional allowlist entries. Empty means the host OS.
	OS platform.OS
	// AllowlistCheck vetoes devices not on the allowlist.
	AllowlistCheck bool
	// ExtraFlags are OR-ed into the creation flags of every probe.
	ExtraFlags device.CreationFlag
}

// Classifier classifies device slots. It is safe for concurrent use.
type Classifier struct {
	table       *rules.Table
	prober      *probe.Prober
	logger      log.Logger
	concurrency int

	timeout    time.Duration
	apiVersion *semver.Version
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(c *Classifier) { c.logger = l }
}

// WithConcurrency sets how many slots ClassifyAll probes at once. The
// default of 1 serializes probes, which is the only safe choice unless the
// runtime is known to be reentrant.
func WithConcurrency(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithProbeTimeout bounds each probe. Zero disables the bound.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Classifier) { c.timeout = d }
}

// WithAPIVersion sets the runtime API version requested by probes.
func WithAPIVersion(v *semver.Version) Option {
	return func(c *Classifier) { c.apiVersion = v }
}

// New creates a Classifier probing through rt. A nil table uses
// rules.Default().
func New(rt probe.Runtime, table *rules.Table, opts ...Option) *Classifier {
	c := &Classifier{
		table:       table,
		logger:      log.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.table == nil {
		c.table = rules.Default()
	}
	c.prober = probe.New(rt,
		probe.WithLogger(c.logger),
		probe.WithTimeout(c.timeout),
		probe.WithAPIVersion(c.apiVersion),
	)
	return c
}

// Rules returns the table the classifier evaluates.
func (c *Classifier) Rules() *rules.Table {
	return c.table
}

// Wait blocks until probes abandoned after a timeout have released their
// sessions. Callers that set WithProbeTimeout must call it once they are
// done classifying.
func (c *Classifier) Wait() {
	c.prober.Wait()
}

// Classify returns the outcome for one slot.
func (c *Classifier) Classify(ctx context.Context, s Settings, slot device.Slot) Outcome {
	return c.Report(ctx, s, slot).Outcome
}

// Report classifies one slot and explains the result.
func (c *Classifier) Report(ctx context.Context, s Settings, slot device.Slot) Report {
	rep := Report{Slot: slot, SlotName: slot.String()}
	logger := c.logger.With("slot", slot)

	if !slot.Valid() {
		rep.Outcome, rep.Reason = IncompatibleError, "invalid slot"
		return rep
	}

	os := s.OS
	if os == "" {
		os = platform.Current()
	}
	if !os.Valid() {
		rep.Outcome, rep.Reason = IncompatibleError, "invalid operating system "+os.String()
		return rep
	}

	flags := s.ExtraFlags
	if os == platform.MacOS {
		flags |= device.FlagMetal
	}

	res := c.prober.Probe(ctx, probe.Request{
		Plugins:    s.Plugins,
		Slot:       slot,
		CachePath:  s.CachePath,
		ExtraFlags: flags,
	})
	rep.DeviceName = res.DeviceName

	switch res.Kind {
	case probe.ConstructionError:
		rep.Outcome, rep.Reason = IncompatibleError, "session construction failed: "+res.Status.String()
	case probe.UnsupportedContext:
		rep.Outcome, rep.Reason = IncompatibleUnsupported, "runtime reports device unsupported"
	case probe.UnknownFailure:
		rep.Outcome = IncompatibleUnknown
		switch {
		case res.TimedOut:
			rep.Reason = "probe timed out"
		case res.CleanupFailed:
			rep.Reason = "probe session release failed: " + res.Status.String()
		default:
			rep.Reason = "probe failed: " + res.Status.String()
		}
	case probe.Success:
		c.vet(&rep, s.AllowlistCheck, os)
	default:
		rep.Outcome, rep.Reason = IncompatibleUnknown, "unexpected probe result "+res.Kind.String()
	}

	logger.Info("classified device", "name", rep.DeviceName, "outcome", rep.Outcome, "reason", rep.Reason)
	return rep
}

// vet applies the allowlist and denylist to a successfully probed device.
func (c *Classifier) vet(rep *Report, allowlistCheck bool, os platform.OS) {
	if allowlistCheck {
		r, ok := c.table.Match(rep.DeviceName, os)
		if !ok {
			rep.Outcome, rep.Reason = IncompatibleUncertified, "not on the allowlist for "+os.String()
			return
		}
		rep.Rule = r.String()
	}
	if sub, ok := c.table.DenyMatch(rep.DeviceName); ok {
		rep.Outcome, rep.Reason = IncompatibleUnsupported, "denylisted: "+sub
		return
	}
	rep.Outcome, rep.Reason = Compatible, "ok"
}

// ClassifyAll classifies every slot in slots and returns those that are
// Compatible. Slots not requested are never set.
//
// With WithProbeTimeout, a probe that times out is abandoned and its
// session may still be live when ClassifyAll returns. Callers must call
// Wait before exiting to guarantee every session has been destroyed.
func (c *Classifier) ClassifyAll(ctx context.Context, s Settings, slots device.Selector) device.Selector {
	sel, _ := c.ClassifyAllReport(ctx, s, slots, nil)
	return sel
}

// ClassifyAllReport is ClassifyAll with a per-slot report in slot order.
// onDone, if non-nil, is called after each slot finishes; calls may come
// from several goroutines.
//
// If ctx is cancelled, no further slots are started. Probes already running
// finish and release their sessions before ClassifyAllReport returns, and
// slots never started are reported as IncompatibleUnknown.
//
// Timed-out probes are the exception: they are abandoned rather than
// awaited, so when WithProbeTimeout is set callers must call Wait to
// release their sessions.
func (c *Classifier) ClassifyAllReport(ctx context.Context, s Settings, slots device.Selector, onDone func(Report)) (device.Selector, []Report) {
	order := slots.Slots()
	reports := make([]Report, len(order))

	var (
		mu     sync.Mutex
		passed device.Selector
	)

	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)

	notProbed := func(slot device.Slot) Report {
		return Report{Slot: slot, SlotName: slot.String(), Outcome: IncompatibleUnknown, Reason: "not probed: " + ctx.Err().Error()}
	}

	for i, slot := range order {
		i, slot := i, slot
		if ctx.Err() != nil {
			reports[i] = notProbed(slot)
			continue
		}
		g.Go(func() error {
			// The limit may have delayed this start past a cancellation.
			if ctx.Err() != nil {
				reports[i] = notProbed(slot)
				return nil
			}
			rep := c.Report(ctx, s, slot)
			mu.Lock()
			reports[i] = rep
			if rep.Outcome.IsCompatible() {
				passed = passed.With(slot)
			}
			mu.Unlock()
			if onDone != nil {
				onDone(rep)
			}
			return nil
		})
	}
	_ = g.Wait()

	c.logger.Debug("batch classification finished", "requested", slots, "compatible", passed)
	return passed, reports
}
