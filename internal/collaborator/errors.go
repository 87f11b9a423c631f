package collaborator

import "fmt"

const maxExcerpt = 200

// FormatError reports a response that could not be parsed into the expected shape.
type FormatError struct {
	Op      string
	Excerpt string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// TransportError reports a call that failed before a response was obtained.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: call failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func excerpt(body []byte) string {
	r := []rune(string(body))
	if len(r) <= maxExcerpt {
		return string(r)
	}
	return string(r[:maxExcerpt]) + "…"
}
