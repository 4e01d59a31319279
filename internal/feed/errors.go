package feed

import "errors"

var (
	// ErrTransport covers network failures and non-2xx responses.
	ErrTransport = errors.New("feed transport error")

	// ErrMalformedFeed means the payload has no usable products array.
	ErrMalformedFeed = errors.New("malformed feed")
)
