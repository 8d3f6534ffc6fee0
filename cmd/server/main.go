// cmd/server/main.go

// 本服務提供帳戶建立、存提款、轉帳等 RESTful API。
// 此檔案負責載入設定、初始化模組（bank, server, storage），
// 啟動時還原快照，結束時保存快照並優雅關閉 HTTP 伺服器。

package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bankaccount/internal/bank"
	"bankaccount/internal/platform/config"
	"bankaccount/internal/platform/logger"
	"bankaccount/internal/platform/metrics"
	"bankaccount/internal/platform/ratelimiter"
	"bankaccount/internal/server"
	"bankaccount/internal/storage"
)

func main() {
	// 本地開發時載入 .env；不存在時直接使用環境變數
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	b := bank.NewBank()
	if err := restore(b, cfg.DataFile, log); err != nil {
		return err
	}

	persist := newPersister(b, cfg.DataFile)

	s := server.NewServer(b, persist,
		server.WithLogger(log),
		server.WithMetrics(metrics.New()),
		server.WithRateLimiter(ratelimiter.New(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute)),
	)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("bank server running", "addr", cfg.ServerAddr, "data_file", cfg.DataFile)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if perr := persist(); perr != nil {
		log.Error("final snapshot failed", "error", perr)
		err = errors.Join(err, perr)
	}
	return err
}

// newPersister 回傳寫入快照的函式；path 為空時不寫檔。
// 快照在鎖內擷取並寫入，檔案內容的先後與狀態變更一致。
func newPersister(b *bank.Bank, path string) func() error {
	if path == "" {
		return func() error { return nil }
	}
	var mu sync.Mutex
	return func() error {
		mu.Lock()
		defer mu.Unlock()
		return storage.SaveSnapshot(path, b.Snapshot())
	}
}

// restore 嘗試從上次的快照載入資料；檔案不存在時以空銀行啟動。
func restore(b *bank.Bank, path string, log *slog.Logger) error {
	if path == "" {
		return nil
	}
	snap, err := storage.LoadSnapshot(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("no snapshot found, starting empty", "data_file", path)
		return nil
	}
	if err != nil {
		return err
	}
	if err := b.Restore(snap); err != nil {
		return err
	}
	log.Info("snapshot restored", "data_file", path, "accounts", b.Len())
	return nil
}
