package grapherror

// Category is the top-level failure class shown to the user.
type Category string

const (
	// CategoryValidation indicates a filter value that failed its validator
	CategoryValidation Category = "validation"

	// CategoryFetch indicates the metrics service could not be reached or answered FAILURE
	CategoryFetch Category = "fetch"

	// CategoryPayload indicates a cached or fetched payload that does not decode
	CategoryPayload Category = "payload"

	// CategoryTransform indicates a payload field the job graph could not use
	CategoryTransform Category = "transform"

	// CategoryLayout indicates a layout engine or runner failure
	CategoryLayout Category = "layout"

	// CategoryWebSocket indicates a render client connection problem
	CategoryWebSocket Category = "websocket"

	// CategoryInternal indicates anything else
	CategoryInternal Category = "internal"
)

func (c Category) String() string {
	return string(c)
}

// Validation subcategories
const (
	SubcategoryValidationDate    = "date_range"
	SubcategoryValidationVersion = "version_range"
	SubcategoryValidationGame    = "game"
)

// Fetch subcategories
const (
	SubcategoryFetchStatus  = "status"
	SubcategoryFetchNetwork = "network"
	SubcategoryFetchTimeout = "timeout"
)

// Transform subcategories
const (
	SubcategoryTransformUnknownTarget = "unknown_target"
	SubcategoryTransformField         = "field"
	SubcategoryTransformEmpty         = "empty"
)

// WebSocket subcategories
const (
	SubcategoryWSUpgrade = "upgrade"
	SubcategoryWSRead    = "read"
	SubcategoryWSWrite   = "write"
	SubcategoryWSMessage = "message"
)

// Internal subcategories
const (
	SubcategoryInternalPanic  = "panic"
	SubcategoryInternalConfig = "config"
	SubcategoryInternalState  = "invalid_state"
)
