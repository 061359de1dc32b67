package interfaces

import "errors"

// ErrNotFound is wrapped by every repository backend when a record is missing
var ErrNotFound = errors.New("not found")
