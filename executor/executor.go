package executor

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/safexec/safexec/config"
	"github.com/safexec/safexec/outcome"
	"github.com/safexec/safexec/sandbox"
	"github.com/safexec/safexec/workspace"
)

// ValidationError reports a submission rejected before any resource was
// allocated. Callers retry with corrected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Workspaces defines the workspace lifecycle the orchestrator depends on
type Workspaces interface {
	Create(code string) (*workspace.Handle, error)
	Destroy(h *workspace.Handle)
}

// Service is the single inbound operation: submit program text, receive a
// classified outcome. A non-nil error is always a *ValidationError.
type Service interface {
	Execute(ctx context.Context, code string) (outcome.Outcome, error)
}

// Orchestrator composes workspace management, sandbox invocation, and result
// classification into one atomic run
type Orchestrator struct {
	logger      *zap.Logger
	workspaces  Workspaces
	invoker     sandbox.Invoker
	constraints sandbox.ConstraintSet
	maxChars    int
}

// Option defines a functional option for Orchestrator
type Option func(*Orchestrator)

// WithWorkspaces sets the Workspaces implementation for Orchestrator
func WithWorkspaces(ws Workspaces) Option {
	return func(o *Orchestrator) {
		o.workspaces = ws
	}
}

// WithInvoker sets the Invoker for Orchestrator
func WithInvoker(inv sandbox.Invoker) Option {
	return func(o *Orchestrator) {
		o.invoker = inv
	}
}

// New creates an Orchestrator wired for the configured container runtime
func New(logger *zap.Logger, cfg *config.Config, opts ...Option) (Service, error) {
	invoker, err := sandbox.NewInvoker(logger, cfg.Sandbox.Runtime)
	if err != nil {
		return nil, fmt.Errorf("create invoker: %w", err)
	}

	orchestrator := &Orchestrator{
		logger:      logger,
		workspaces:  workspace.NewManager(logger, cfg.Sandbox.WorkspaceRoot),
		invoker:     invoker,
		constraints: sandbox.FromConfig(cfg, workspace.GuestFileName),
		maxChars:    cfg.Sandbox.MaxCodeChars,
	}

	for _, opt := range opts {
		opt(orchestrator)
	}

	return orchestrator, nil
}

// Execute turns one untrusted submission into one isolated, bounded run and
// its classified outcome. The workspace is destroyed on every exit path once
// created; validation failures reject before anything is allocated.
func (o *Orchestrator) Execute(ctx context.Context, code string) (outcome.Outcome, error) {
	if !utf8.ValidString(code) {
		return outcome.Outcome{}, &ValidationError{Reason: "code must be valid UTF-8 text"}
	}

	if length := utf8.RuneCountInString(code); length > o.maxChars {
		return outcome.Outcome{}, &ValidationError{
			Reason: fmt.Sprintf("code too long (max %d characters)", o.maxChars),
		}
	}

	ws, err := o.workspaces.Create(code)
	if err != nil {
		o.logger.Error("workspace creation failed", zap.Error(err))
		return outcome.InfrastructureFailure(fmt.Sprintf("failed to prepare workspace: %v", err)), nil
	}
	defer o.workspaces.Destroy(ws)

	start := time.Now()
	inv, err := o.invoker.Invoke(ctx, ws, o.constraints)
	if err != nil {
		o.logger.Error("sandbox launch failed", zap.String("run_id", ws.ID), zap.Error(err))
		return outcome.InfrastructureFailure(err.Error()), nil
	}

	result := outcome.Classify(inv, int(o.constraints.Timeout.Seconds()))

	o.logger.Info("run completed",
		zap.String("run_id", ws.ID),
		zap.Stringer("outcome", result.Kind),
		zap.Int("exit_code", inv.ExitCode),
		zap.Duration("duration", time.Since(start)))

	return result, nil
}
