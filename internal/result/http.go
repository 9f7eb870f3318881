package result

import "net/http"

// HTTPStatus maps a result envelope to an HTTP status code, using okStatus
// for successes.
func HTTPStatus(res *Result, okStatus int) int {
	if res.Success {
		return okStatus
	}

	switch res.ErrorCode {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeAlreadyPartnered, CodeNotAvailable, CodeInvalidTransition:
		return http.StatusConflict
	case CodeNoPreferences, CodeNoMatches, CodeLowCompatibility:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
