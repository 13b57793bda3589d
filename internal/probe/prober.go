package probe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/tsukumogami/rprcheck/internal/device"
	"github.com/tsukumogami/rprcheck/internal/log"
)

// Kind classifies the result of a probe.
type Kind int

const (
	// Success means a session was created and the device reported its name.
	Success Kind = iota
	// UnsupportedContext means the runtime rejected the device/runtime
	// combination as unsupported.
	UnsupportedContext
	// ConstructionError means the request was invalid or session creation
	// failed for a reason other than lack of support.
	ConstructionError
	// UnknownFailure covers every other fault, including a session that
	// could not be released and a probe that timed out.
	UnknownFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case UnsupportedContext:
		return "unsupported_context"
	case ConstructionError:
		return "construction_error"
	case UnknownFailure:
		return "unknown_failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request identifies the device to probe.
type Request struct {
	Plugins    []PluginID
	Slot       device.Slot
	CachePath  string
	ExtraFlags device.CreationFlag
}

// Result is the outcome of one probe.
type Result struct {
	Kind Kind
	// DeviceName is set when the runtime reported a name, even if the
	// session later failed to release.
	DeviceName string
	// Status is the code of the failing runtime call, or StatusSuccess.
	Status Status
	// CleanupFailed is set when Destroy did not succeed.
	CleanupFailed bool
	// TimedOut is set when the probe exceeded the configured timeout.
	TimedOut bool
}

// Prober runs trial sessions against a Runtime. Every session it creates is
// destroyed before the probe that created it completes.
type Prober struct {
	runtime    Runtime
	apiVersion *semver.Version
	timeout    time.Duration
	logger     log.Logger

	// inflight tracks probe goroutines, including ones abandoned after a
	// timeout.
	inflight sync.WaitGroup
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout bounds each probe. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// WithAPIVersion sets the runtime API version sent with every request.
func WithAPIVersion(v *semver.Version) Option {
	return func(p *Prober) {
		if v != nil {
			p.apiVersion = v
		}
	}
}

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l log.Logger) Option {
	return func(p *Prober) { p.logger = l }
}

// New creates a Prober for rt.
func New(rt Runtime, opts ...Option) *Prober {
	p := &Prober{
		runtime:    rt,
		apiVersion: DefaultAPIVersion,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe creates a session restricted to req.Slot, reads the device name and
// destroys the session.
//
// When a timeout is configured and exceeded, Probe returns UnknownFailure
// without waiting. The abandoned probe keeps running and destroys its
// session when the runtime returns; Wait blocks until that happens.
func (p *Prober) Probe(ctx context.Context, req Request) Result {
	if err := validate(req); err != nil {
		p.logger.Debug("probe request rejected", "slot", req.Slot, "error", err)
		return Result{Kind: ConstructionError, Status: StatusInvalidParameter}
	}

	if p.timeout <= 0 {
		return p.run(ctx, req)
	}

	pctx, cancel := context.WithTimeout(ctx, p.timeout)
	done := make(chan Result, 1)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer cancel()
		done <- p.run(pctx, req)
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r
	case <-timer.C:
		p.logger.Warn("probe timed out", "slot", req.Slot, "timeout", p.timeout)
		return Result{Kind: UnknownFailure, TimedOut: true}
	}
}

// Wait blocks until every probe started by p has finished, including probes
// abandoned after a timeout.
func (p *Prober) Wait() {
	p.inflight.Wait()
}

func validate(req Request) error {
	if !req.Slot.Valid() {
		return fmt.Errorf("%w: %d", device.ErrUnknownSlot, int(req.Slot))
	}
	if len(req.Plugins) == 0 {
		return fmt.Errorf("no plugin handles")
	}
	for _, id := range req.Plugins {
		if id < 0 {
			return fmt.Errorf("invalid plugin handle %d", id)
		}
	}
	return nil
}

func (p *Prober) run(ctx context.Context, req Request) (res Result) {
	logger := p.logger.With("slot", req.Slot)

	// The runtime is foreign code; a panic becomes an unknown failure.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("runtime panicked during probe", "panic", r)
			res = Result{Kind: UnknownFailure, DeviceName: res.DeviceName, Status: StatusInternalError}
		}
	}()

	binding, _ := device.Bind(req.Slot)
	sreq := SessionRequest{
		APIVersion: p.apiVersion,
		Plugins:    req.Plugins,
		Flags:      binding.Flag | req.ExtraFlags,
		CachePath:  req.CachePath,
	}

	logger.Debug("creating probe session", "flags", fmt.Sprintf("%#x", uint32(sreq.Flags)))
	sess, st := p.runtime.CreateSession(ctx, sreq)
	if sess != nil {
		defer p.release(logger, sess, &res)
	}

	switch {
	case st == StatusUnsupported:
		return Result{Kind: UnsupportedContext, Status: st}
	case !st.OK():
		return Result{Kind: ConstructionError, Status: st}
	case sess == nil:
		return Result{Kind: UnknownFailure, Status: StatusInternalError}
	}

	name, st := DeviceName(sess, binding.NameKey)
	if !st.OK() {
		logger.Debug("device name query failed", "status", st)
		return Result{Kind: UnknownFailure, Status: st}
	}
	logger.Debug("device reported name", "name", name)
	return Result{Kind: Success, DeviceName: name, Status: StatusSuccess}
}

// release destroys sess and degrades *res to UnknownFailure if that fails.
func (p *Prober) release(logger log.Logger, sess Session, res *Result) {
	st := sess.Destroy()
	if st.OK() {
		return
	}
	logger.Warn("failed to release probe session", "status", st)
	*res = Result{
		Kind:          UnknownFailure,
		DeviceName:    res.DeviceName,
		Status:        st,
		CleanupFailed: true,
	}
}
