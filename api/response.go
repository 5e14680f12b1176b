package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/nixxel-company-limited/thermal-printer-bridge/printer"
)

// Envelope results
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Envelope error codes for failures that are not facade errors.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnavailable  = "UNAVAILABLE"
	CodeInternal     = "INTERNAL"
)

// Response is the envelope returned by every endpoint. Code is the
// service's numeric error code for facade errors; Kind names the facade
// error kind or one of the envelope codes above.
type Response struct {
	Result        string `json:"result"`
	Data          any    `json:"data"`
	Code          int    `json:"code,omitempty"`
	Kind          string `json:"kind,omitempty"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId"`
}

// correlationID reuses a well-formed X-Correlation-ID from the caller or
// makes a new one.
func correlationID(r *http.Request) string {
	if h := r.Header.Get("X-Correlation-ID"); h != "" {
		if id, err := uuid.Parse(h); err == nil {
			return id.String()
		}
	}
	return uuid.NewString()
}

// writeSuccess writes a 200 envelope carrying data.
func writeSuccess(w http.ResponseWriter, id string, data any) {
	writeResponse(w, http.StatusOK, &Response{
		Result:        ResultOK,
		Data:          data,
		CorrelationID: id,
	})
}

// writeFailure writes an error envelope with an explicit status.
func writeFailure(w http.ResponseWriter, id string, status int, kind, message string) {
	writeResponse(w, status, &Response{
		Result:        ResultError,
		Kind:          kind,
		Message:       message,
		CorrelationID: id,
	})
}

// writeError maps err to a status and envelope.
func writeError(w http.ResponseWriter, id string, err error) {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		writeFailure(w, id, http.StatusBadRequest, CodeBadRequest, argErr.Error())
		return
	}

	var pe *printer.Error
	if !errors.As(err, &pe) {
		writeFailure(w, id, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	writeResponse(w, StatusFor(pe.Kind), &Response{
		Result:        ResultError,
		Code:          pe.Code,
		Kind:          pe.Kind.String(),
		Message:       pe.Message,
		CorrelationID: id,
	})
}

// StatusFor returns the HTTP status for a facade error kind.
func StatusFor(kind printer.Kind) int {
	switch kind {
	case printer.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	case printer.KindCommunication:
		return http.StatusBadGateway
	case printer.KindDecode:
		return http.StatusBadRequest
	case printer.KindUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeResponse(w http.ResponseWriter, status int, resp *Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Internal server error: %v", err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Correlation-ID", resp.CorrelationID)
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
