package output

import "fmt"

// UsageError reports bad invocation: wrong arguments, a missing source
// directory, or output locations that would clobber each other. It is
// always returned before anything on disk is touched.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Usagef formats a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
