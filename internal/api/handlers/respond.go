package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/frontier/internal/analysis"
	"github.com/wonny/frontier/internal/capm"
	"github.com/wonny/frontier/internal/marketdata"
	"github.com/wonny/frontier/internal/optimizer"
	"github.com/wonny/frontier/internal/returns"
	"github.com/wonny/frontier/internal/risk"
	"github.com/wonny/frontier/internal/stats"
)

var (
	// ErrBadRequest 요청 본문/파라미터 오류
	ErrBadRequest = errors.New("bad request")
	// ErrNotConfigured 의존 컴포넌트(DB, 시장 데이터)가 설정되지 않음
	ErrNotConfigured = errors.New("not configured")
)

// ErrorResponse is the body of every non-2xx JSON response
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// statusFor maps engine errors to HTTP status codes
// ⭐ SSOT: 에러 → 상태 코드 매핑은 여기서만
func statusFor(err error) int {
	switch {
	case errors.Is(err, stats.ErrIllConditionedAssets),
		errors.Is(err, optimizer.ErrOptimizationDidNotConverge):
		return http.StatusUnprocessableEntity

	case errors.Is(err, ErrBadRequest),
		errors.Is(err, stats.ErrInvalidInput),
		errors.Is(err, stats.ErrInsufficientData),
		errors.Is(err, optimizer.ErrInvalidInput),
		errors.Is(err, capm.ErrMisalignedSeries),
		errors.Is(err, capm.ErrInsufficientData),
		errors.Is(err, risk.ErrInsufficientData),
		errors.Is(err, analysis.ErrNotEnoughPoints),
		errors.Is(err, returns.ErrEmptySeries),
		errors.Is(err, returns.ErrMisaligned),
		errors.Is(err, returns.ErrInvalidValue),
		errors.Is(err, returns.ErrDuplicateAsset),
		errors.Is(err, returns.ErrUnknownAsset):
		return http.StatusBadRequest

	case errors.Is(err, ErrNotConfigured),
		errors.Is(err, marketdata.ErrProviderUnavailable):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the message sent to the client for err
// 5xx는 고정 문구만 노출 (원본 에러는 로그에만)
func clientMessage(status int, err error) string {
	switch {
	case status < http.StatusInternalServerError:
		return err.Error()
	case errors.Is(err, ErrNotConfigured):
		return err.Error()
	case status == http.StatusServiceUnavailable:
		return "Market data unavailable"
	case status == http.StatusGatewayTimeout:
		return "Request timed out"
	default:
		return "Internal server error"
	}
}
