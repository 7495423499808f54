package outcome

import (
	"fmt"
	"strings"

	"github.com/safexec/safexec/sandbox"
)

// Classify maps one raw invocation onto a tagged Outcome.
//
// The deadline signal wins over exit-status inspection: a guest that happens
// to exit with any particular numeric code is still an ordinary program
// failure unless the host deadline itself fired. On timeout the partial
// streams are dropped, since the guest was killed mid-output.
func Classify(inv sandbox.Invocation, timeoutSeconds int) Outcome {
	if inv.TimedOut {
		return TimedOut(timeoutSeconds)
	}

	if inv.ExitCode == 0 {
		return Success(strings.TrimSuffix(inv.Stdout, "\n"))
	}

	message := strings.TrimSpace(inv.Stderr)
	if message == "" {
		message = fmt.Sprintf("container exited with code %d", inv.ExitCode)
	}

	return ProgramFailure(strings.TrimSpace(inv.Stdout), message)
}
