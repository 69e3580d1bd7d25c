package pipeline

import "errors"

// Failure kinds of the generation capability. All of them are absorbed by the
// Runner and the asset loader; callers match them with errors.Is.
var (
	// ErrTransport means the model could not be reached or returned an error.
	ErrTransport = errors.New("generation transport failure")

	// ErrSchemaViolation means the response was not valid JSON or not the required shape.
	ErrSchemaViolation = errors.New("response violates analysis schema")

	// ErrEmptyResult means the response parsed but held no analyses.
	ErrEmptyResult = errors.New("generation returned no analyses")

	// ErrAssetDecode means an image response carried no inline payload.
	ErrAssetDecode = errors.New("image response has no inline data")

	// ErrRunInProgress is returned when an analysis run is already in flight.
	ErrRunInProgress = errors.New("analysis run already in progress")
)

// ErrorKind returns a short label for err, used in run records and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTransport):
		return "transport"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	case errors.Is(err, ErrAssetDecode):
		return "asset_decode"
	case errors.Is(err, ErrRunInProgress):
		return "in_progress"
	default:
		return "unknown"
	}
}
