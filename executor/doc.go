// Package executor orchestrates one sandboxed run per submission.
//
// The orchestrator validates the submission, allocates a private workspace,
// issues one bounded sandbox invocation, classifies the result, and destroys
// the workspace on every exit path. Concurrent submissions never share
// workspaces, container names, or any other mutable state.
package executor
