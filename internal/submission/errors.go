package submission

import "errors"

// ErrNotFound reports a referenced record that does not exist.
var ErrNotFound = errors.New("not found")
