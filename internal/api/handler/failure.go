package handler

import (
	"errors"
	"net/http"

	"github.com/kiranshivaraju/contractscan/internal/api/response"
	"github.com/kiranshivaraju/contractscan/pkg/models"
)

type failureResponse struct {
	status  int
	code    string
	message string
}

var failureResponses = map[models.FailureKind]failureResponse{
	models.KindUnsupportedFormat: {
		http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT",
		"Only PDF and TXT files are supported.",
	},
	models.KindDecodeError: {
		http.StatusUnprocessableEntity, "DECODE_ERROR",
		"The file could not be read. Upload a valid PDF or a UTF-8 text file.",
	},
	models.KindInsufficientContent: {
		http.StatusUnprocessableEntity, "INSUFFICIENT_CONTENT",
		"The document contains too little text to analyze. Scanned PDFs without a text layer are not supported.",
	},
	models.KindTransportError: {
		http.StatusBadGateway, "AI_TRANSPORT_ERROR",
		"The analysis service could not be reached. Please try again.",
	},
	models.KindServiceError: {
		http.StatusBadGateway, "AI_SERVICE_ERROR",
		"The analysis service returned an error. Please try again later.",
	},
	models.KindEmptyResponse: {
		http.StatusBadGateway, "AI_EMPTY_RESPONSE",
		"The analysis service returned no result for this document.",
	},
	models.KindMalformedResponse: {
		http.StatusBadGateway, "AI_MALFORMED_RESPONSE",
		"The analysis service returned a result that could not be read. Please try again.",
	},
}

var timeoutResponse = failureResponse{
	http.StatusGatewayTimeout, "AI_TIMEOUT",
	"The analysis took too long and was cancelled. Please try again.",
}

var internalResponse = failureResponse{
	http.StatusInternalServerError, "INTERNAL_ERROR",
	"An unexpected error occurred",
}

// describeFailure maps a pipeline error to its HTTP rendering. Diagnostics
// never leave the server through this path.
func describeFailure(err error) failureResponse {
	var f *models.Failure
	if !errors.As(err, &f) {
		return internalResponse
	}
	if f.Kind == models.KindTransportError && models.IsTimeout(err) {
		return timeoutResponse
	}
	if fr, ok := failureResponses[f.Kind]; ok {
		return fr
	}
	return internalResponse
}

func writeFailure(w http.ResponseWriter, err error) {
	fr := describeFailure(err)
	var details any
	if kind, ok := models.KindOf(err); ok {
		details = map[string]string{"kind": string(kind)}
	}
	response.Error(w, fr.status, fr.code, fr.message, details)
}
