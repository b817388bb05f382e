package mdl

import (
	"errors"
	"fmt"
)

// Fatal parse and serialize errors. Every one of them wraps ErrMalformedModel.
var (
	ErrMalformedModel      = errors.New("malformed model file")
	ErrUnknownNodeType     = fmt.Errorf("%w: unknown node type", ErrMalformedModel)
	ErrNestedNode          = fmt.Errorf("%w: node opened before previous endnode", ErrMalformedModel)
	ErrUnexpectedDelimiter = fmt.Errorf("%w: unexpected block delimiter", ErrMalformedModel)
	ErrMissingField        = fmt.Errorf("%w: missing required field", ErrMalformedModel)
	ErrListCount           = fmt.Errorf("%w: list shorter than declared count", ErrMalformedModel)
	ErrInvalidNumber       = fmt.Errorf("%w: invalid number", ErrMalformedModel)
	ErrUnresolvedParent    = fmt.Errorf("%w: unresolved parent reference", ErrMalformedModel)
	ErrBadRoot             = fmt.Errorf("%w: root node must have parent NULL", ErrMalformedModel)
	ErrDuplicateNode       = fmt.Errorf("%w: duplicate node name under the same parent", ErrMalformedModel)
	ErrFaceIndex           = fmt.Errorf("%w: face vertex index out of range", ErrMalformedModel)
	ErrUnexpectedEOF       = fmt.Errorf("%w: unexpected end of input", ErrMalformedModel)
)

// ErrDegenerateAABB is returned by BuildAABBTree when the faces cannot be split.
// It is a recoverable geometry condition, not a malformed file.
var ErrDegenerateAABB = errors.New("degenerate aabb geometry")

// SyntaxError locates a fatal error at a source line.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// syntaxErr builds a SyntaxError whose message adds detail to a sentinel.
func syntaxErr(line int, sentinel error, format string, args ...any) error {
	if format == "" {
		return &SyntaxError{Line: line, Err: sentinel}
	}
	return &SyntaxError{Line: line, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}
