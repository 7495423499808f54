package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safexec/safexec/config"
)

func TestConstraintSetRunArgs(t *testing.T) {
	constraints := ConstraintSet{
		Image:     "safe-python-runner:latest",
		Memory:    "128m",
		PidsLimit: 64,
		Timeout:   10 * time.Second,
		User:      "nobody",
		EntryFile: "script.py",
	}

	args := constraints.RunArgs("safexec-abc", "/tmp/safexec-abc")

	expected := []string{
		"run", "--rm",
		"--name", "safexec-abc",
		"--network", "none",
		"--memory", "128m",
		"--pids-limit", "64",
		"--read-only",
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
		"--user", "nobody",
		"--volume", "/tmp/safexec-abc:/app:ro",
		"safe-python-runner:latest",
		"python", "/app/script.py",
	}
	assert.Equal(t, expected, args)
}

func TestConstraintSetRunArgsMandatoryRestrictions(t *testing.T) {
	// Regardless of configured values, the hard restrictions must be present
	constraints := ConstraintSet{
		Image:     "other:1",
		Memory:    "256m",
		PidsLimit: 32,
		Timeout:   5 * time.Second,
		User:      "nobody",
		EntryFile: "script.py",
	}

	args := constraints.RunArgs("n", "/w")

	assert.Contains(t, args, "--network")
	assert.Contains(t, args, "none")
	assert.Contains(t, args, "--read-only")
	assert.Contains(t, args, "--cap-drop")
	assert.Contains(t, args, "no-new-privileges:true")
	assert.Contains(t, args, "/w:/app:ro")
}

func TestFromConfig(t *testing.T) {
	cfg := &config.Config{
		Sandbox: config.SandboxConfig{
			Runtime:     "docker",
			Image:       "safe-python-runner:latest",
			TimeoutSec:  10,
			MemoryLimit: "128m",
			PidsLimit:   64,
		},
	}

	constraints := FromConfig(cfg, "script.py")

	require.Equal(t, "safe-python-runner:latest", constraints.Image)
	assert.Equal(t, "128m", constraints.Memory)
	assert.Equal(t, 64, constraints.PidsLimit)
	assert.Equal(t, 10*time.Second, constraints.Timeout)
	assert.Equal(t, "nobody", constraints.User)
	assert.Equal(t, "script.py", constraints.EntryFile)
}
