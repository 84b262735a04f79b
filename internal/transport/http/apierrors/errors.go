// apierrors стандартизирует ответы об ошибках HTTP API gallery-service.
// На вход принимает ошибку сервисного слоя (или gRPC-статус), на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
package apierrors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pribylovaa/reddit-gallery/internal/service"
)

// StatusClientClosedRequest — нестандартный код "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат ошибки для клиента.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// FromService переводит ошибку сервисного слоя в gRPC-статус:
//   - ErrInvalidArgument -> codes.InvalidArgument;
//   - ErrNotFound -> codes.NotFound;
//   - ErrTooManySessions -> codes.ResourceExhausted;
//   - ErrClosed -> codes.Unavailable;
//   - context.DeadlineExceeded / context.Canceled -> одноимённые коды;
//   - уже gRPC-статус -> как есть;
//   - прочее -> codes.Internal с единым безопасным сообщением.
func FromService(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrTooManySessions):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, service.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

// ToHTTP конвертирует ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — программная ошибка вызова: 500/internal;
//   - ошибка сервисного слоя — через FromService;
//   - codes.Code маппится через baseFromGRPC.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{Code: "internal", Message: "internal error"},
		}
	}

	st, _ := status.FromError(FromService(err))

	httpStatus, code, msg := baseFromGRPC(st.Code())
	return httpStatus, ErrorResponse{
		Error: APIError{Code: code, Message: msg},
	}
}

// WriteError пишет статус и тело ошибки, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromGRPC — маппинг gRPC -> HTTP/код/сообщение.
func baseFromGRPC(c codes.Code) (int, string, string) {
	switch c {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case codes.NotFound:
		return http.StatusNotFound, "not_found", "not found"
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "resource_exhausted", "too many sessions"
	case codes.Canceled:
		return StatusClientClosedRequest, "canceled", "canceled"
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	case codes.Unavailable:
		return http.StatusServiceUnavailable, "unavailable", "service unavailable"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
