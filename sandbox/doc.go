// Package sandbox drives the external container runtime.
//
// The sandbox package issues one bounded invocation of the isolation
// mechanism (docker or podman) per run. It builds the full constraint
// argument list in one place, enforces a host-level wall-clock deadline
// around the runtime process, and reports the raw exit status and captured
// streams for classification. The runtime itself is treated as an untrusted
// dependency: its own timeout support, if any, is never relied upon.
package sandbox
