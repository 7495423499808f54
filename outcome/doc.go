// Package outcome defines the classified result of one sandboxed run.
//
// An Outcome carries exactly one of four tags: success, program error,
// timeout, or infrastructure error. The classifier is a pure function from
// an invocation's exit status and captured streams to an Outcome, so the
// mapping can be tested without ever spawning a container.
package outcome
