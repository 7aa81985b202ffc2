package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/boxoffice/internal/engine"
	"github.com/roach88/boxoffice/internal/ledger"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidID          = "invalid_id"
	codeInvalidAmount      = "invalid_amount"
	codeUnavailable        = "unavailable"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Seq   int64  `json:"seq,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// StatusForRejection maps a rejection code to an HTTP status.
func StatusForRejection(code ledger.RejectionCode) int {
	switch code {
	case ledger.CodeOutOfRange, ledger.CodePaymentMismatch, ledger.CodeInvalidPrice, ledger.CodeInvalidCaller:
		return http.StatusBadRequest
	case ledger.CodeNotOwner, ledger.CodeInvalidAcceptor:
		return http.StatusForbidden
	case ledger.CodeListingNotFound:
		return http.StatusNotFound
	case ledger.CodeAlreadySold, ledger.CodeListingAlreadyFulfilled, ledger.CodeNoActiveOffer:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeSubmitError reports a failed Submit. Rejections carry the seq they
// were recorded at.
func writeSubmitError(w http.ResponseWriter, seq int64, err error) {
	var rej *ledger.Rejection
	if errors.As(err, &rej) {
		writeErrorResponse(w, StatusForRejection(rej.Code), errorResponse{
			Error: rej.Message,
			Code:  string(rej.Code),
			Seq:   seq,
		})
		return
	}

	var engErr *engine.EngineError
	if errors.As(err, &engErr) {
		switch engErr.Code {
		case engine.ErrCodeInvalidCommand:
			writeError(w, http.StatusBadRequest, string(engErr.Code), engErr.Message)
		default:
			writeError(w, http.StatusServiceUnavailable, codeUnavailable, engErr.Error())
		}
		return
	}

	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
