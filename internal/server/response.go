// internal/server/response.go
//
// 統一 HTTP 回應格式：成功回應為 JSON，錯誤回應為 {"error": ..., "code": ...}。
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"bankaccount/internal/bank"
)

// 錯誤代碼，對應 bank 套件的錯誤種類。
const (
	CodeInvalidEmail      = "invalid_email"
	CodeInvalidAmount     = "invalid_amount"
	CodeInsufficientFunds = "insufficient_funds"
	CodeInvalidTarget     = "invalid_target"
	CodeNotFound          = "not_found"
	CodeAccountExists     = "account_exists"
	CodeBadRequest        = "bad_request"
	CodeMethodNotAllowed  = "method_not_allowed"
	CodeRateLimited       = "rate_limited"
	CodeInternal          = "internal"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeJSON 統一輸出成功回應。
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr 以指定狀態碼與代碼輸出錯誤。
func writeErr(w http.ResponseWriter, err error, status int, code string) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

// writeBankErr 依錯誤種類決定狀態碼。
func writeBankErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeErr(w, err, status, code)
}

// classify 將 bank 錯誤對應為 HTTP 狀態碼與錯誤代碼。
// ErrNotFound 需先於 ErrInvalidTarget 判斷（未登錄的收款帳戶兩者皆成立）。
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict, CodeInsufficientFunds
	case errors.Is(err, bank.ErrAccountExists):
		return http.StatusConflict, CodeAccountExists
	case errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest, CodeInvalidAmount
	case errors.Is(err, bank.ErrInvalidEmail):
		return http.StatusBadRequest, CodeInvalidEmail
	case errors.Is(err, bank.ErrInvalidTarget):
		return http.StatusBadRequest, CodeInvalidTarget
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
