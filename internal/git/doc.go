// Package git materializes repositories on local storage at a pinned revision.
//
// A materialization always starts from scratch: any previous clone for the
// same repository id is removed, the repository is cloned with its default
// branch as HEAD, and the worktree is then force-checked out at the recorded
// commit, leaving HEAD detached.
package git
