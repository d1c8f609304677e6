// Package gitctx selects review files from a git work tree.
//
// [TrackedFiles] lists what git tracks, so ignored build output and vendored
// caches stay out of the prompt. [ChangedFiles] narrows that to files that
// differ from a revision, which keeps a review focused on work in progress.
// Both take include/exclude glob filters. Everything shells out to git.
package gitctx
