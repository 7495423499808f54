// Package workspace manages ephemeral per-run directories.
//
// Each run gets a private, uniquely named directory holding the submitted
// program text as a single file. The directory exists only for the duration
// of one sandbox invocation and is removed unconditionally afterwards.
package workspace
