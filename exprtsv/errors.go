package exprtsv

import "fmt"

// FileFormatError marks an input file that could not be parsed: unreadable,
// empty, missing a required column, or carrying a non-numeric expression
// value. Callers decide whether one of these aborts the run or skips the
// file.
type FileFormatError struct {
	Path string
	Err  error
}

func (e *FileFormatError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}
