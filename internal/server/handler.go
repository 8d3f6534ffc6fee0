// internal/server/handler.go
//
// Package server 提供 HTTP RESTful 介面，作為 bank 模組的應用層。
// 每個 handler 僅負責解析請求、呼叫 bank 層、回傳 JSON；
// 成功變更狀態後呼叫 persist 寫入快照。
package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"bankaccount/internal/bank"
	"bankaccount/internal/platform/metrics"
	"bankaccount/internal/platform/ratelimiter"
)

// 操作名稱，用於日誌與 metrics 標籤。
const (
	opCreate   = "create"
	opDeposit  = "deposit"
	opWithdraw = "withdraw"
	opTransfer = "transfer"
)

// Server 為 HTTP 層核心結構。
type Server struct {
	Bank    *bank.Bank
	persist func() error
	log     *slog.Logger
	metrics *metrics.Metrics
	limiter *ratelimiter.KeyLimiter
}

// Option configures optional Server collaborators.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation and the /metrics endpoint.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithRateLimiter enables per-client rate limiting.
func WithRateLimiter(l *ratelimiter.KeyLimiter) Option {
	return func(s *Server) { s.limiter = l }
}

// NewServer 建立新的 HTTP 伺服器。persist 可為 nil。
func NewServer(b *bank.Bank, persist func() error, opts ...Option) *Server {
	s := &Server{Bank: b, persist: persist, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics.SetAccounts(b.Len())
	return s
}

// 金額欄位以指標解碼，以區分「未提供」與「0」。
type createRequest struct {
	Email   string           `json:"email"`
	Balance *decimal.Decimal `json:"balance"`
}

type amountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	From   string           `json:"from"`
	To     string           `json:"to"`
	Amount *decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	Message string    `json:"message"`
	From    bank.View `json:"from"`
	To      bank.View `json:"to"`
}

// POST /accounts
func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	var a *bank.Account
	balance, err := required("balance", req.Balance)
	if err == nil {
		a, err = s.Bank.Create(req.Email, balance)
	}
	s.metrics.ObserveOperation(opCreate, err)
	if err != nil {
		writeBankErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a.View())
	s.afterMutation(r, opCreate)
}

// GET /accounts
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accts := s.Bank.List()
	out := make([]bank.View, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.View())
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /accounts/{email}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.Bank.Get(emailParam(r))
	if err != nil {
		writeBankErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.View())
}

// POST /accounts/{email}/deposit
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	s.mutateBalance(w, r, opDeposit, s.Bank.Deposit)
}

// POST /accounts/{email}/withdraw
func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	s.mutateBalance(w, r, opWithdraw, s.Bank.Withdraw)
}

func (s *Server) mutateBalance(w http.ResponseWriter, r *http.Request, op string,
	apply func(string, decimal.Decimal) (*bank.Account, error)) {
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	var a *bank.Account
	amt, err := required("amount", req.Amount)
	if err == nil {
		a, err = apply(emailParam(r), amt)
	}
	s.metrics.ObserveOperation(op, err)
	if err != nil {
		writeBankErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.View())
	s.afterMutation(r, op)
}

// GET /accounts/{email}/logs
func (s *Server) logs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.Bank.Logs(emailParam(r))
	if err != nil {
		writeBankErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// POST /transfer，成功後同時回傳兩帳戶最新餘額。
func (s *Server) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	var from, to *bank.Account
	amt, err := required("amount", req.Amount)
	if err == nil {
		from, to, err = s.Bank.Transfer(req.From, req.To, amt)
	}
	s.metrics.ObserveOperation(opTransfer, err)
	if err != nil {
		writeBankErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, transferResponse{
		Message: "transfer success",
		From:    from.View(),
		To:      to.View(),
	})
	s.afterMutation(r, opTransfer)
}

// GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "accounts": s.Bank.Len()})
}

// afterMutation 更新帳戶數並寫入快照；寫入失敗只記錄，不影響已完成的回應。
func (s *Server) afterMutation(r *http.Request, op string) {
	s.metrics.SetAccounts(s.Bank.Len())
	if s.persist == nil {
		return
	}
	if err := s.persist(); err != nil {
		s.log.ErrorContext(r.Context(), "persist snapshot failed", "op", op, "error", err)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, fmt.Errorf("decode request: %w", err), http.StatusBadRequest, CodeBadRequest)
		return false
	}
	return true
}

// required 檢查金額欄位是否存在；缺少時視為非法金額，不以 0 代替。
func required(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	if d == nil {
		return decimal.Zero, fmt.Errorf("%w: %s is required", bank.ErrInvalidAmount, field)
	}
	return *d, nil
}

func emailParam(r *http.Request) string {
	raw := chi.URLParam(r, "email")
	if email, err := url.PathUnescape(raw); err == nil {
		return email
	}
	return raw
}
