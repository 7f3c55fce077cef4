package hamidx

import (
	"errors"
	"fmt"
)

// ErrKTooLarge is returned when a query's error bound k exceeds the
// compile-time/construction-time maximum t_k a variant was built for
// (spec section 7: "query precondition violation").
var ErrKTooLarge = errors.New("hamidx: k exceeds the index's maximum supported errors")

// ErrCorrupt indicates a serialized stream failed to deserialize into a
// well-formed index (spec section 7: "a corrupt serialized stream yields a
// load error and leaves the target instance ... empty").
type ErrCorrupt struct {
	cause error
}

func (e *ErrCorrupt) Error() string {
	return fmt.Sprintf("hamidx: corrupt index stream: %v", e.cause)
}

func (e *ErrCorrupt) Unwrap() error { return e.cause }

// WrapCorrupt wraps a lower-level deserialization error as ErrCorrupt.
func WrapCorrupt(err error) error {
	if err == nil {
		return nil
	}
	return &ErrCorrupt{cause: err}
}
