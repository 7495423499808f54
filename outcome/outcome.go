package outcome

import "fmt"

// Kind tags an Outcome. Exactly one kind is active per run.
type Kind int

const (
	// KindSuccess means the guest program ran to completion with exit 0
	KindSuccess Kind = iota
	// KindProgramError means the guest program exited nonzero or emitted diagnostics
	KindProgramError
	// KindTimeout means the guest exceeded the wall-clock budget
	KindTimeout
	// KindInfrastructure means the host could not run the guest at all
	KindInfrastructure
)

// String returns the kind's name for logging
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindProgramError:
		return "program_error"
	case KindTimeout:
		return "timeout"
	case KindInfrastructure:
		return "infrastructure_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Outcome is the classified, tagged result of one run. Only the fields
// belonging to the active Kind are populated; the constructors below are the
// only way outcomes are built.
type Outcome struct {
	Kind           Kind
	Output         string // Success, ProgramError
	Message        string // ProgramError, Infrastructure
	TimeoutSeconds int    // Timeout
}

// Success reports a clean run with the given captured output
func Success(output string) Outcome {
	return Outcome{Kind: KindSuccess, Output: output}
}

// ProgramFailure reports a guest program that ran but failed
func ProgramFailure(output, message string) Outcome {
	return Outcome{Kind: KindProgramError, Output: output, Message: message}
}

// TimedOut reports a guest that exceeded the configured budget
func TimedOut(seconds int) Outcome {
	return Outcome{Kind: KindTimeout, TimeoutSeconds: seconds}
}

// InfrastructureFailure reports a host-side failure, distinct from any guest fault
func InfrastructureFailure(reason string) Outcome {
	return Outcome{Kind: KindInfrastructure, Message: reason}
}
