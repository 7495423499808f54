package sandbox

import (
	"fmt"
	"time"

	"github.com/safexec/safexec/config"
)

// GuestMountPoint is where the workspace appears inside the container
const GuestMountPoint = "/app"

// ConstraintSet enumerates the resource and access constraints applied to
// one sandbox invocation. All fields are fixed at startup from configuration.
type ConstraintSet struct {
	Image     string        // interpreter image reference
	Memory    string        // memory ceiling, runtime syntax (e.g. "128m")
	PidsLimit int           // process/thread-count ceiling
	Timeout   time.Duration // host-level wall-clock budget
	User      string        // non-privileged user the guest runs as
	EntryFile string        // program file name inside the mounted workspace
}

// FromConfig builds the constraint set for all runs of this process
func FromConfig(cfg *config.Config, entryFile string) ConstraintSet {
	return ConstraintSet{
		Image:     cfg.Sandbox.Image,
		Memory:    cfg.Sandbox.MemoryLimit,
		PidsLimit: cfg.Sandbox.PidsLimit,
		Timeout:   cfg.GetTimeout(),
		User:      "nobody",
		EntryFile: entryFile,
	}
}

// RunArgs serializes the constraint set into the argument list of a single
// `<runtime> run` invocation: named container, no network, memory and pids
// ceilings, read-only root filesystem, dropped capabilities, no privilege
// escalation, and the workspace mounted read-only at GuestMountPoint.
func (c ConstraintSet) RunArgs(containerName, workspaceDir string) []string {
	return []string{
		"run", "--rm",
		"--name", containerName,
		"--network", "none",
		"--memory", c.Memory,
		"--pids-limit", fmt.Sprintf("%d", c.PidsLimit),
		"--read-only",
		"--security-opt", "no-new-privileges:true",
		"--cap-drop", "ALL",
		"--user", c.User,
		"--volume", fmt.Sprintf("%s:%s:ro", workspaceDir, GuestMountPoint),
		c.Image,
		"python", GuestMountPoint + "/" + c.EntryFile,
	}
}
