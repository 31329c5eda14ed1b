package filestat

import "errors"

// ErrCache is the sentinel wrapped by every cache-load failure. Per spec,
// a CacheError is never fatal: Load always returns a usable (possibly
// empty) Store alongside it, and callers are expected to log and proceed.
var ErrCache = errors.New("filestat cache error")

// CacheError wraps a cache-load failure with the reason it was non-fatal.
type CacheError struct {
	Reason string
	Err    error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return "filestat cache: " + e.Reason + ": " + e.Err.Error()
	}
	return "filestat cache: " + e.Reason
}

func (e *CacheError) Unwrap() error { return ErrCache }

func cacheErrorf(reason string, err error) error {
	return &CacheError{Reason: reason, Err: err}
}
