package normalization

import "errors"

// Normalization errors. All of them mean "skip this event and continue";
// none may abort the rest of a batch or a sibling stream task.
var (
	// ErrMalformedPayload is returned when an event payload has an
	// unexpected byte layout for its topic.
	ErrMalformedPayload = errors.New("malformed event payload")

	// ErrMissingBlockData is returned when the block timestamp for an event
	// could not be resolved.
	ErrMissingBlockData = errors.New("missing block data")

	// ErrPriceUndefined is returned when a price cannot be derived (zero
	// reserve or zero sqrt price). The event carries no observation.
	ErrPriceUndefined = errors.New("price undefined")

	// ErrDecodeFailure is returned when event fields fail to decode or the
	// topic is not one the pool kind emits.
	ErrDecodeFailure = errors.New("event decode failure")
)

// ErrorKind maps a normalization error to a stable label for metrics and
// skip reports.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrMissingBlockData):
		return "missing_block_data"
	case errors.Is(err, ErrPriceUndefined):
		return "price_undefined"
	case errors.Is(err, ErrDecodeFailure):
		return "decode_failure"
	default:
		return "unknown"
	}
}
