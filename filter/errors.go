package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyExpression is returned by Compile for a blank expression
	ErrEmptyExpression = errors.New("empty filter expression")
	// ErrNoDetail is returned when a torrent is evaluated without its detail
	ErrNoDetail = errors.New("torrent detail unavailable")
)

// CompileError reports an expression the expr compiler rejected, either
// because of a syntax error or because it does not yield a bool
type CompileError struct {
	Expression string
	Err        error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid filter %q: %v", e.Expression, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// MatchError reports a filter that could not be applied to one torrent.
// The torrent is skipped, never downloaded.
type MatchError struct {
	Expression string
	TID        string
	Name       string
	Err        error
}

func (e *MatchError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("filter %q on torrent %s: %v", e.Expression, e.TID, e.Err)
	}
	return fmt.Sprintf("filter %q on torrent %s (%s): %v", e.Expression, e.TID, e.Name, e.Err)
}

func (e *MatchError) Unwrap() error { return e.Err }
