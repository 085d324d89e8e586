package analysis

import "errors"

var (
	// ErrMissingImage means the request carried no image at all.
	ErrMissingImage = errors.New("image is required")
	// ErrMalformedImage means the image could not be decoded from base64.
	ErrMalformedImage = errors.New("image is not valid base64 data")
	// ErrUnparsable means the model answered but not with a usable reading.
	ErrUnparsable = errors.New("analysis result could not be parsed")
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
)
