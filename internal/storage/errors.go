package storage

import "errors"

// ErrClosed is returned when an operation is attempted on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// ErrUnsupportedFormat is returned when a dataset export requests a format
// other than Parquet.
var ErrUnsupportedFormat = errors.New("storage: unsupported dataset format")
