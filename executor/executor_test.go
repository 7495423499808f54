package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/safexec/safexec/config"
	"github.com/safexec/safexec/outcome"
	"github.com/safexec/safexec/sandbox"
	"github.com/safexec/safexec/workspace"
)

// MockWorkspaces implements Workspaces for testing, counting lifecycle calls
type MockWorkspaces struct {
	mu        sync.Mutex
	createErr error
	creates   int
	destroys  int
}

func (m *MockWorkspaces) Create(_ string) (*workspace.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.creates++
	return &workspace.Handle{ID: "mock", Dir: "/tmp/safexec-mock"}, nil
}

func (m *MockWorkspaces) Destroy(_ *workspace.Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroys++
}

func (m *MockWorkspaces) counts() (creates, destroys int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creates, m.destroys
}

// MockInvoker implements sandbox.Invoker for testing
type MockInvoker struct {
	result sandbox.Invocation
	err    error

	// gate, when set, blocks Invoke until the channel is closed
	gate chan struct{}
}

func (m *MockInvoker) Invoke(_ context.Context, _ *workspace.Handle, _ sandbox.ConstraintSet) (sandbox.Invocation, error) {
	if m.gate != nil {
		<-m.gate
	}
	return m.result, m.err
}

func testConfig() *config.Config {
	return &config.Config{
		Sandbox: config.SandboxConfig{
			Runtime:      "docker",
			Image:        "safe-python-runner:latest",
			TimeoutSec:   10,
			MemoryLimit:  "128m",
			PidsLimit:    64,
			MaxCodeChars: 5000,
		},
	}
}

func newTestOrchestrator(t *testing.T, ws Workspaces, inv sandbox.Invoker) Service {
	t.Helper()
	svc, err := New(zaptest.NewLogger(t), testConfig(), WithWorkspaces(ws), WithInvoker(inv))
	require.NoError(t, err)
	return svc
}

func TestExecuteValidation(t *testing.T) {
	t.Run("OversizedCodeRejectedBeforeAllocation", func(t *testing.T) {
		ws := &MockWorkspaces{}
		svc := newTestOrchestrator(t, ws, &MockInvoker{})

		_, err := svc.Execute(context.Background(), strings.Repeat("a", 5001))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Error(), "code too long (max 5000 characters)")

		creates, destroys := ws.counts()
		assert.Zero(t, creates)
		assert.Zero(t, destroys)
	})

	t.Run("ExactLimitAccepted", func(t *testing.T) {
		ws := &MockWorkspaces{}
		svc := newTestOrchestrator(t, ws, &MockInvoker{result: sandbox.Invocation{ExitCode: 0}})

		_, err := svc.Execute(context.Background(), strings.Repeat("a", 5000))
		require.NoError(t, err)
	})

	t.Run("LengthCountsCharactersNotBytes", func(t *testing.T) {
		ws := &MockWorkspaces{}
		svc := newTestOrchestrator(t, ws, &MockInvoker{result: sandbox.Invocation{ExitCode: 0}})

		// 2500 two-byte runes: 5000 bytes but only 2500 characters
		_, err := svc.Execute(context.Background(), strings.Repeat("é", 2500))
		require.NoError(t, err)
	})

	t.Run("NonTextInputRejected", func(t *testing.T) {
		ws := &MockWorkspaces{}
		svc := newTestOrchestrator(t, ws, &MockInvoker{})

		_, err := svc.Execute(context.Background(), "print(1)\xff\xfe")

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)

		creates, _ := ws.counts()
		assert.Zero(t, creates)
	})
}

func TestExecuteOutcomes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ws := &MockWorkspaces{}
		inv := &MockInvoker{result: sandbox.Invocation{ExitCode: 0, Stdout: "Hello World\n"}}
		svc := newTestOrchestrator(t, ws, inv)

		result, err := svc.Execute(context.Background(), `print("Hello World")`)
		require.NoError(t, err)

		assert.Equal(t, outcome.KindSuccess, result.Kind)
		assert.Equal(t, "Hello World", result.Output)
	})

	t.Run("ProgramError", func(t *testing.T) {
		ws := &MockWorkspaces{}
		inv := &MockInvoker{result: sandbox.Invocation{ExitCode: 1, Stderr: "ValueError: bad\n"}}
		svc := newTestOrchestrator(t, ws, inv)

		result, err := svc.Execute(context.Background(), `raise ValueError("bad")`)
		require.NoError(t, err)

		assert.Equal(t, outcome.KindProgramError, result.Kind)
		assert.Equal(t, "ValueError: bad", result.Message)
	})

	t.Run("Timeout", func(t *testing.T) {
		ws := &MockWorkspaces{}
		inv := &MockInvoker{result: sandbox.Invocation{TimedOut: true}}
		svc := newTestOrchestrator(t, ws, inv)

		result, err := svc.Execute(context.Background(), "while True: pass")
		require.NoError(t, err)

		assert.Equal(t, outcome.KindTimeout, result.Kind)
		assert.Equal(t, 10, result.TimeoutSeconds)
	})

	t.Run("LaunchFailureIsInfrastructure", func(t *testing.T) {
		ws := &MockWorkspaces{}
		inv := &MockInvoker{err: errors.New("failed to launch docker: executable file not found")}
		svc := newTestOrchestrator(t, ws, inv)

		result, err := svc.Execute(context.Background(), "print(1)")
		require.NoError(t, err)

		assert.Equal(t, outcome.KindInfrastructure, result.Kind)
		assert.Contains(t, result.Message, "docker")
	})

	t.Run("WorkspaceFailureIsInfrastructure", func(t *testing.T) {
		ws := &MockWorkspaces{createErr: errors.New("disk full")}
		svc := newTestOrchestrator(t, ws, &MockInvoker{})

		result, err := svc.Execute(context.Background(), "print(1)")
		require.NoError(t, err)

		assert.Equal(t, outcome.KindInfrastructure, result.Kind)
		assert.Contains(t, result.Message, "failed to prepare workspace")
	})
}

func TestExecuteDestroysWorkspaceOnEveryBranch(t *testing.T) {
	branches := []struct {
		name string
		inv  *MockInvoker
	}{
		{"Success", &MockInvoker{result: sandbox.Invocation{ExitCode: 0}}},
		{"ProgramError", &MockInvoker{result: sandbox.Invocation{ExitCode: 1, Stderr: "x"}}},
		{"Timeout", &MockInvoker{result: sandbox.Invocation{TimedOut: true}}},
		{"LaunchFailure", &MockInvoker{err: errors.New("boom")}},
	}

	for _, branch := range branches {
		t.Run(branch.name, func(t *testing.T) {
			ws := &MockWorkspaces{}
			svc := newTestOrchestrator(t, ws, branch.inv)

			_, err := svc.Execute(context.Background(), "print(1)")
			require.NoError(t, err)

			creates, destroys := ws.counts()
			assert.Equal(t, 1, creates)
			assert.Equal(t, 1, destroys, "destroy must be called exactly once per create")
		})
	}

	t.Run("CreateFailureNeedsNoDestroy", func(t *testing.T) {
		ws := &MockWorkspaces{createErr: errors.New("disk full")}
		svc := newTestOrchestrator(t, ws, &MockInvoker{})

		_, err := svc.Execute(context.Background(), "print(1)")
		require.NoError(t, err)

		_, destroys := ws.counts()
		assert.Zero(t, destroys)
	})
}

func TestExecuteIdempotentOutcomeTag(t *testing.T) {
	ws := &MockWorkspaces{}
	inv := &MockInvoker{result: sandbox.Invocation{ExitCode: 1, Stderr: "ValueError: bad"}}
	svc := newTestOrchestrator(t, ws, inv)

	first, err := svc.Execute(context.Background(), `raise ValueError("bad")`)
	require.NoError(t, err)
	second, err := svc.Execute(context.Background(), `raise ValueError("bad")`)
	require.NoError(t, err)

	assert.Equal(t, first.Kind, second.Kind)
}

func TestConcurrentRunsAreIndependent(t *testing.T) {
	ws := &MockWorkspaces{}

	gate := make(chan struct{})
	slow := &MockInvoker{result: sandbox.Invocation{TimedOut: true}, gate: gate}
	slowSvc := newTestOrchestrator(t, ws, slow)

	fast := &MockInvoker{result: sandbox.Invocation{ExitCode: 0, Stdout: "Hello World\n"}}
	fastSvc := newTestOrchestrator(t, ws, fast)

	slowDone := make(chan outcome.Outcome, 1)
	go func() {
		result, _ := slowSvc.Execute(context.Background(), "while True: pass")
		slowDone <- result
	}()

	// The fast run must complete while the slow one is still blocked
	result, err := fastSvc.Execute(context.Background(), `print("Hello World")`)
	require.NoError(t, err)
	assert.Equal(t, outcome.KindSuccess, result.Kind)

	select {
	case <-slowDone:
		t.Fatal("slow run finished before its gate was released")
	default:
	}

	close(gate)
	slowResult := <-slowDone
	assert.Equal(t, outcome.KindTimeout, slowResult.Kind)

	creates, destroys := ws.counts()
	assert.Equal(t, 2, creates)
	assert.Equal(t, 2, destroys)
}

func TestNewRejectsUnknownRuntime(t *testing.T) {
	cfg := testConfig()
	cfg.Sandbox.Runtime = "chroot"

	_, err := New(zaptest.NewLogger(t), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported runtime")
}
