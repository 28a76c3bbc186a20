package upstream

import (
	"errors"
	"fmt"
)

// ErrorClass categorizes partition fetch failures. The rebuild retry pass
// treats every class the same way; the split exists for metrics and for
// operators reading logs.
type ErrorClass string

const (
	// ClassTransport covers network-level failures: timeouts, refused
	// connections, canceled requests.
	ClassTransport ErrorClass = "transport"
	// ClassUpstream covers non-200 responses, including rate limiting.
	ClassUpstream ErrorClass = "upstream"
	// ClassParse covers response bodies that could not be decoded.
	ClassParse ErrorClass = "parse"
)

// FetchError describes a failed partition fetch. A partition fails as a
// unit: the page that broke identifies where, the class identifies why.
type FetchError struct {
	Class     ErrorClass
	Source    string
	Path      string
	Partition string
	Page      int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch %s partition %s page %d (%s): %v",
		e.Source, e.Path, e.Partition, e.Page, e.Class, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClassOf extracts the error class from a fetch failure chain. Anything
// that is not a FetchError counts as transport.
func ClassOf(err error) ErrorClass {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Class
	}
	return ClassTransport
}
