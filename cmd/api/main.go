package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"opsboard.dev/internal/auth"
	"opsboard.dev/internal/config"
	"opsboard.dev/internal/httpapi"
	"opsboard.dev/internal/obs"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.PGDSN == "" {
		log.Fatal("config: OPSBOARD_PG_DSN is required")
	}
	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	signer, err := auth.NewSigner(auth.SignerConfig{
		Secret: []byte(cfg.AuthSecret),
		Issuer: cfg.Issuer,
		TTL:    cfg.AccessTTL,
	})
	if err != nil {
		log.Fatalf("signer: %v", err)
	}

	var registry auth.Registry = auth.NewMemoryRegistry()
	if cfg.RedisAddr != "" {
		registry = auth.NewRedisRegistry(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	users := auth.NewPGUserStore(db)
	roles := auth.NewPGRoleStore(db)

	svc, err := auth.NewService(users, signer, registry,
		auth.WithRoleStore(roles),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.EnsureBuiltins(ctx); err != nil {
		log.Fatalf("ensure permissions: %v", err)
	}
	cancel()

	api := httpapi.New(svc, users, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("starting opsboard-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = db.Close()
	log.Println("stopped")
}
