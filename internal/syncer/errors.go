package syncer

import "fmt"

// RepoPathError means the app registration has no filesystem location, so
// no sync can start for it.
type RepoPathError struct {
	AppSlug string
}

func (e *RepoPathError) Error() string {
	return fmt.Sprintf("app %q has no repo path configured", e.AppSlug)
}

// FilesystemError wraps a read/write failure with enough context to show an
// operator which file or directory was involved.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }
