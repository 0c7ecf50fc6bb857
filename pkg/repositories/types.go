package repositories

import "errors"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}

// ErrConflict signals a concurrent write conflict during an atomic
// batch. The engine retries the whole mutation.
type ErrConflict struct {
}

func (e *ErrConflict) Error() string {
	return "concurrent write conflict"
}

func IsConflict(err error) bool {
	var conflict *ErrConflict
	return errors.As(err, &conflict)
}
