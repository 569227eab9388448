package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"dashquery/internal/domain"
)

// Error codes of the JSON error body.
const (
	codeInvalidRequest       = "invalid_request"
	codeInvalidConfig        = "invalid_config"
	codeInvalidCondition     = "invalid_condition"
	codeUnsupportedAggregate = "unsupported_aggregate"
	codeFieldNotFound        = "field_not_found"
	codeNotFound             = "not_found"
	codeDataError            = "data_error"
	codeTimeout              = "timeout"
	codeInternal             = "internal"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	FieldIDs    []string `json:"field_ids,omitempty"`
	ConditionID string   `json:"condition_id,omitempty"`
}

// requestError marks a request that could not be decoded or failed
// document validation.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

// httpStatusFromDomainError maps domain errors to HTTP status codes and the
// error body. Condition errors are checked before configuration errors
// because a condition on an unknown field wraps FieldNotFoundError.
func httpStatusFromDomainError(err error) (int, ErrorBody) {
	var (
		badRequest  *requestError
		condErr     *domain.ConditionError
		schemaNF    *domain.SchemaNotFoundError
		invalid     *domain.InvalidConfigError
		unsupported *domain.UnsupportedAggregateError
		fieldNF     *domain.FieldNotFoundError
		dataErr     *domain.DataError
		notFound    *domain.NotFoundError
		validation  *domain.ValidationError
	)

	switch {
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, ErrorBody{Code: codeInvalidRequest, Message: badRequest.Error()}
	case errors.As(err, &condErr):
		return http.StatusBadRequest, ErrorBody{
			Code:        codeInvalidCondition,
			Message:     condErr.Error(),
			FieldIDs:    []string{condErr.FieldID},
			ConditionID: condErr.ConditionID,
		}
	case errors.As(err, &schemaNF):
		return http.StatusNotFound, ErrorBody{Code: codeNotFound, Message: schemaNF.Error()}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrorBody{Code: codeInvalidConfig, Message: invalid.Error(), FieldIDs: invalid.FieldIDs}
	case errors.As(err, &unsupported):
		return http.StatusBadRequest, ErrorBody{Code: codeUnsupportedAggregate, Message: unsupported.Error(), FieldIDs: []string{unsupported.FieldID}}
	case errors.As(err, &fieldNF):
		return http.StatusBadRequest, ErrorBody{Code: codeFieldNotFound, Message: fieldNF.Error(), FieldIDs: []string{fieldNF.FieldID}}
	case errors.As(err, &dataErr):
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, ErrorBody{Code: codeTimeout, Message: "dashboard query timed out"}
		}
		return http.StatusInternalServerError, ErrorBody{Code: codeDataError, Message: dataErr.Error()}
	case errors.As(err, &notFound):
		return http.StatusNotFound, ErrorBody{Code: codeNotFound, Message: notFound.Error()}
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorBody{Code: codeInvalidRequest, Message: validation.Error()}
	default:
		return http.StatusInternalServerError, ErrorBody{Code: codeInternal, Message: "internal server error"}
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := httpStatusFromDomainError(err)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
