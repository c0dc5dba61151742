// Package dispatch runs a named task against the assembled configuration.
package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/observability/metrics"
	"github.com/pendergraft/deployforge/internal/signer"
	"github.com/pendergraft/deployforge/internal/storage"
	"github.com/pendergraft/deployforge/internal/tasks"
	"github.com/pendergraft/deployforge/internal/validation"
)

// State is a dispatch lifecycle state.
type State int

const (
	Idle State = iota
	Resolving
	Validated
	Executing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Validated:
		return "validated"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// Request names the task to run.
type Request struct {
	Task string
	Args []string
	// Network overrides the configured default network.
	Network string
}

// Outcome describes a finished dispatch.
type Outcome struct {
	RunID    string
	Task     string
	Network  string
	State    State
	Result   *tasks.Result
	Err      error
	Duration time.Duration
	// Transitions is every state entered, starting with Resolving.
	Transitions []State
}

// Recorder persists dispatch outcomes.
type Recorder interface {
	RecordRun(ctx context.Context, run *storage.Run) error
}

// Dispatcher resolves tasks, validates their network and invokes them.
type Dispatcher struct {
	cfg        *config.Config
	registry   *tasks.Registry
	signers    signer.Provider
	recorder   Recorder
	metrics    bool
	logger     *slog.Logger
	out        io.Writer
	projectDir string
	now        func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRecorder records every outcome to the run history.
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

// WithMetrics reports every outcome to the metrics package.
func WithMetrics(enabled bool) Option {
	return func(d *Dispatcher) {
		d.metrics = enabled
	}
}

// WithLogger sets the logger handed to tasks.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithOutput sets where tasks print their output.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.out = w
	}
}

// WithProjectDir sets the project root handed to tasks.
func WithProjectDir(dir string) Option {
	return func(d *Dispatcher) {
		d.projectDir = dir
	}
}

// New creates a Dispatcher. A nil signers provider defaults to one backed by cfg.
func New(cfg *config.Config, registry *tasks.Registry, signers signer.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:        cfg,
		registry:   registry,
		signers:    signers,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:        io.Discard,
		projectDir: ".",
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.signers == nil {
		d.signers = signer.NewProvider(cfg)
	}
	return d
}

// Dispatch runs one task to a terminal state. The returned error equals
// Outcome.Err; the Outcome is never nil.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Outcome, error) {
	start := d.now()
	network := req.Network
	if network == "" {
		network = d.cfg.DefaultNetwork()
	}

	out := &Outcome{Task: req.Task, Network: network, State: Idle}
	logger := d.logger.With("task", req.Task)
	if network != "" {
		logger = logger.With("network", network)
	}

	transition := func(s State) {
		logger.Debug("dispatch state", "from", out.State.String(), "to", s.String())
		out.State = s
		out.Transitions = append(out.Transitions, s)
	}
	fail := func(err error) (*Outcome, error) {
		out.Err = err
		transition(Failed)
		logger.Error("task failed", "kind", Kind(err), "error", err)
		d.finish(ctx, req, out, start)
		return out, err
	}

	transition(Resolving)
	desc, err := d.registry.Resolve(req.Task)
	if err != nil {
		return fail(err)
	}

	if desc.RequiresNetwork {
		if err := d.checkNetwork(network); err != nil {
			return fail(err)
		}
	}
	transition(Validated)

	ec := &tasks.ExecutionContext{
		Config:     d.cfg,
		Network:    network,
		Signers:    d.signers,
		Out:        d.out,
		Logger:     logger,
		ProjectDir: d.projectDir,
	}

	transition(Executing)
	result, err := desc.Handler(ctx, req.Args, ec)
	if err != nil {
		return fail(fmt.Errorf("task %s: %w", desc.Name, err))
	}
	if result == nil {
		result = &tasks.Result{}
	}
	out.Result = result
	transition(Completed)
	d.finish(ctx, req, out, start)
	return out, nil
}

func (d *Dispatcher) checkNetwork(network string) error {
	if network == "" {
		return &UnusableNetworkError{Reason: "use --network or set default_network"}
	}
	finding, declared := validation.ValidateNetwork(d.cfg, network)
	if !declared {
		return &UnusableNetworkError{Network: network, Reason: "not declared in the project file"}
	}
	if !finding.Usable() {
		return unusableFromFinding(finding)
	}
	return nil
}

func (d *Dispatcher) finish(ctx context.Context, req Request, out *Outcome, start time.Time) {
	out.Duration = d.now().Sub(start)

	if d.metrics {
		metrics.TaskDispatch(out.Task, out.State.String(), out.Duration)
	}
	if d.recorder == nil {
		return
	}

	run := &storage.Run{
		Task:       out.Task,
		Network:    out.Network,
		Args:       req.Args,
		State:      out.State.String(),
		StartedAt:  start,
		DurationMS: out.Duration.Milliseconds(),
	}
	if out.Err != nil {
		run.ErrorKind = Kind(out.Err)
		run.Error = out.Err.Error()
	}
	// History is best effort; a failed write never changes the outcome.
	if err := d.recorder.RecordRun(ctx, run); err != nil {
		d.logger.Warn("recording run history", "error", err)
		return
	}
	out.RunID = run.ID
}
