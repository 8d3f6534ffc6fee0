// internal/server/router.go
//
// 本檔負責 HTTP 路由註冊。所有 API 同時掛在根路徑與 /api/v1 之下；
// /metrics 只在根路徑提供。
package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router 建立並回傳整個 HTTP 處理鏈。
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(s.rateLimit)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, errors.New("route not found"), http.StatusNotFound, CodeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, errors.New("method not allowed"), http.StatusMethodNotAllowed, CodeMethodNotAllowed)
	})

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", s.routes)
	s.routes(r)

	return r
}

// routes 註冊 v1 API：
//
//	GET  /health
//	GET  /accounts
//	POST /accounts
//	GET  /accounts/{email}
//	POST /accounts/{email}/deposit
//	POST /accounts/{email}/withdraw
//	GET  /accounts/{email}/logs
//	POST /transfer
func (s *Server) routes(r chi.Router) {
	r.Get("/health", s.health)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", s.listAccounts)
		r.Post("/", s.createAccount)

		r.Route("/{email}", func(r chi.Router) {
			r.Get("/", s.getAccount)
			r.Post("/deposit", s.deposit)
			r.Post("/withdraw", s.withdraw)
			r.Get("/logs", s.logs)
		})
	})

	r.Post("/transfer", s.transfer)
}
