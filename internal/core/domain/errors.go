package domain

import "errors"

var (
	// ErrValidation is returned before any side effect for rejected input:
	// unsupported image extension, malformed price, empty fields.
	ErrValidation = errors.New("validation failed")

	// ErrStorage is a blob write or delete failure.
	ErrStorage = errors.New("blob storage failure")

	ErrBlobNotFound = errors.New("blob not found")

	ErrNotFound = errors.New("product not found")

	ErrQuery            = errors.New("query failed")
	ErrStoreUnavailable = errors.New("database unavailable")
)
