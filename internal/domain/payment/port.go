package payment

import (
	"context"
	"encoding/json"
)

// Gateway confirms a completed checkout with the settlement API and returns
// the vendor payload verbatim. Failures are *VendorError when the vendor
// answered.
type Gateway interface {
	Confirm(ctx context.Context, c Confirmation) (json.RawMessage, error)
}
