package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	httpctx "github.com/dchukwu/identity-server/internal/api/http/context"
	"github.com/dchukwu/identity-server/internal/api/http/router"
	httpServer "github.com/dchukwu/identity-server/internal/api/http/server"
	"github.com/dchukwu/identity-server/internal/config"
	"github.com/dchukwu/identity-server/internal/logger"
	"github.com/dchukwu/identity-server/internal/model"
	"github.com/dchukwu/identity-server/internal/password"
	"github.com/dchukwu/identity-server/internal/repository/postgres"
	"github.com/dchukwu/identity-server/internal/server"
	"github.com/dchukwu/identity-server/internal/service"
	"github.com/dchukwu/identity-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	verificationRepo := postgres.NewVerificationTokenRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	tokenManager := token.NewJWT(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	hasher := password.NewBcrypt(cfg.Password.Cost)

	tokenService := service.NewTokenService(tokenManager, refreshTokenRepo, userRepo, cfg.JWT.RefreshTTL, logger)
	identityService := service.NewIdentity(userRepo, verificationRepo, hasher, tokenService, logger)
	ctxMgr := httpctx.NewManager()

	srv := registerHTTPServer(identityService, tokenService, userRepo, db, ctxMgr, logger, fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func registerHTTPServer(
	identityService *service.Identity,
	tokenService *service.TokenService,
	users model.UserStore,
	db *postgres.Connection,
	ctxMgr model.ContextManager,
	logger *logger.Logger,
	addr string,
) *httpServer.HTTPServer {
	r := router.New(identityService, tokenService, users, db, ctxMgr, logger)
	e := r.Register()

	return httpServer.NewHTTPServer(e, addr)
}
