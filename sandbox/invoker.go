package sandbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/safexec/safexec/workspace"
)

// Invocation is the raw result of one bounded sandbox run. TimedOut is the
// host deadline's own signal; it is authoritative and independent of any
// numeric exit code the guest may have produced.
type Invocation struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Invoker defines the interface for issuing one bounded sandbox invocation
type Invoker interface {
	Invoke(ctx context.Context, ws *workspace.Handle, constraints ConstraintSet) (Invocation, error)
}

// CLIInvoker implements Invoker by driving a container runtime CLI
type CLIInvoker struct {
	logger *zap.Logger
	binary string
	runner CommandRunner
}

// CLIInvokerOption defines a functional option for CLIInvoker
type CLIInvokerOption func(*CLIInvoker)

// WithCommandRunner sets the CommandRunner for CLIInvoker
func WithCommandRunner(runner CommandRunner) CLIInvokerOption {
	return func(v *CLIInvoker) {
		v.runner = runner
	}
}

// NewDockerInvoker creates an Invoker backed by the docker CLI
func NewDockerInvoker(logger *zap.Logger, opts ...CLIInvokerOption) *CLIInvoker {
	return newCLIInvoker(logger, "docker", opts...)
}

// NewPodmanInvoker creates an Invoker backed by the podman CLI
func NewPodmanInvoker(logger *zap.Logger, opts ...CLIInvokerOption) *CLIInvoker {
	return newCLIInvoker(logger, "podman", opts...)
}

func newCLIInvoker(logger *zap.Logger, binary string, opts ...CLIInvokerOption) *CLIInvoker {
	invoker := &CLIInvoker{
		logger: logger,
		binary: binary,
		runner: &RealCommandRunner{}, // Default implementation
	}

	for _, opt := range opts {
		opt(invoker)
	}

	return invoker
}

// NewInvoker creates an Invoker for the configured container runtime
func NewInvoker(logger *zap.Logger, runtime string) (Invoker, error) {
	switch runtime {
	case "docker":
		return NewDockerInvoker(logger), nil
	case "podman":
		return NewPodmanInvoker(logger), nil
	default:
		return nil, fmt.Errorf("unsupported runtime: %s", runtime)
	}
}

// containerReapTimeout bounds the forced removal of a container whose
// runtime process was killed before --rm could take effect.
const containerReapTimeout = 5 * time.Second

// Invoke runs the guest program in one container against the workspace,
// bounded by the constraint set's wall-clock budget. The deadline is
// enforced on the host around the runtime process; the runtime's own
// timeout support is not trusted. The bound is strictly time-based: a run
// already started is not aborted when the caller's request is withdrawn,
// so the run context is detached from the caller's cancellation.
func (v *CLIInvoker) Invoke(ctx context.Context, ws *workspace.Handle, constraints ConstraintSet) (Invocation, error) {
	containerName := "safexec-" + ws.ID
	args := append([]string{v.binary}, constraints.RunArgs(containerName, ws.Dir)...)

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constraints.Timeout)
	defer cancel()

	stdout, stderr, exitCode, err := v.runner.RunCommand(runCtx, args)

	// The deadline takes precedence over whatever exit status the killed
	// runtime process reported. Removal of the leftover container happens
	// in the background so an unresponsive runtime cannot delay the
	// timeout outcome.
	if runCtx.Err() == context.DeadlineExceeded {
		go v.reapContainer(containerName)
		return Invocation{TimedOut: true}, nil
	}

	if err != nil {
		return Invocation{}, fmt.Errorf("failed to launch %s: %w", v.binary, err)
	}

	return Invocation{
		ExitCode: exitCode,
		Stdout:   stdout,
		Stderr:   stderr,
	}, nil
}

// reapContainer force-removes a container left behind after the runtime CLI
// was killed mid-run. Failure here is logged only; the run already has its
// outcome.
func (v *CLIInvoker) reapContainer(containerName string) {
	reapCtx, cancel := context.WithTimeout(context.Background(), containerReapTimeout)
	defer cancel()

	if _, _, _, err := v.runner.RunCommand(reapCtx, []string{v.binary, "rm", "-f", containerName}); err != nil {
		v.logger.Warn("failed to remove container after timeout",
			zap.String("container", containerName), zap.Error(err))
	}
}
