package server

import (
	"net/http"

	"github.com/opengamedata/ogdviz/errors"
	grapherr "github.com/opengamedata/ogdviz/graph/error"
)

// statusFor maps a dashboard error to an HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.IsSupersededError(err):
		return http.StatusConflict
	case errors.IsNotFoundError(err):
		return http.StatusNotFound
	}

	ge := grapherr.Classify(err)
	switch ge.Category {
	case grapherr.CategoryValidation:
		return http.StatusBadRequest
	case grapherr.CategoryFetch:
		if ge.Subcategory == grapherr.SubcategoryFetchTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case grapherr.CategoryPayload, grapherr.CategoryTransform:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorEnvelope builds the WebSocket error message for err.
func errorEnvelope(err error) Envelope {
	meta := grapherr.Classify(err).ToMeta()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		meta["hint"] = hints[0]
	}
	return Envelope{Type: MsgError, Data: meta}
}
