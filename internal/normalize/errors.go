package normalize

import "errors"

var (
	errNoRoot         = errors.New("document has no root element")
	errJunkAfterRoot  = errors.New("junk after document element")
	errTextBeforeRoot = errors.New("text before document element")
)

// MalformedInputError reports a well-formed document whose size cannot be
// resolved, or resolves to a non-positive extent.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

// ParseError reports a source that is not well-formed XML.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Err.Error()
}

// Unwrap returns the underlying decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
