// Authserver owns accounts and sessions: it serves registration, login, the
// token lifecycle, and session validation for the other services, and emits
// account events to Kafka.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	accounthandler "dinehub/backend/internal/account/handler"
	accountrepo "dinehub/backend/internal/account/repository"
	accountservice "dinehub/backend/internal/account/service"
	"dinehub/backend/internal/config"
	"dinehub/backend/internal/db"
	endpointdomain "dinehub/backend/internal/endpoint/domain"
	endpointrepo "dinehub/backend/internal/endpoint/repository"
	"dinehub/backend/internal/endpoint/registry"
	"dinehub/backend/internal/events"
	eventproducer "dinehub/backend/internal/events/producer"
	"dinehub/backend/internal/observability/logger"
	"dinehub/backend/internal/observability/otel"
	"dinehub/backend/internal/security"
	"dinehub/backend/internal/server"
	"dinehub/backend/internal/server/filters"
	"dinehub/backend/internal/session/authority"
	sessionhandler "dinehub/backend/internal/session/handler"
	sessionrepo "dinehub/backend/internal/session/repository"
	sessionservice "dinehub/backend/internal/session/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, Service: "authserver"})
	log := logger.L()
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "authserver", cfg.OTLPInsecure)
	if err != nil {
		log.Fatal("otel setup failed", zap.Error(err))
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	privKey, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatal("jwt private key", zap.Error(err))
	}
	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatal("jwt public key", zap.Error(err))
	}
	tokens := security.NewTokenProvider(privKey, pubKey, cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTTL(), cfg.RefreshTTL())

	var keyring *security.Keyring
	if cfg.TokenEncryptionEnabled {
		encPriv, err := security.ParseRSAPrivateKey(cfg.TokenEncryptionPrivateKey)
		if err != nil {
			log.Fatal("token encryption private key", zap.Error(err))
		}
		encPub, err := security.ParseRSAPublicKey(cfg.TokenEncryptionPublicKey)
		if err != nil {
			log.Fatal("token encryption public key", zap.Error(err))
		}
		keyring = security.NewKeyring(cfg.TokenEncryptionKeyID)
		keyring.Add(cfg.TokenEncryptionKeyID, security.NewTokenCipher(encPriv, encPub))
	}

	accounts := accountrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)

	producer := eventproducer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.KafkaTopic, logger.Named("producer"))
	defer func() { _ = producer.Close() }()

	authService := accountservice.NewAuthService(accounts, sessions,
		security.NewHasher(cfg.BcryptCost), tokens, producer, logger.Named("auth"),
		cfg.AccessTTL(), cfg.RefreshTTL())
	sessionService := sessionservice.NewService(sessions)

	// The auth service always answers session checks from its own store.
	localAuthority := authority.NewLocal(sessions, logger.Named("authority"))

	reg := registry.New(endpointrepo.NewPostgresRepository(database), cfg.RegistryCacheTTL())
	jwtChain := filters.NewChain("jwt",
		filters.NewContextFilter(),
		filters.NewRateLimitFilter(rdb, logger.Named("ratelimit")),
		filters.NewJWTFilter(tokens, keyring, localAuthority, cfg.AuthCookieName, logger.Named("jwt")),
	)
	publicChain := filters.NewChain("public",
		filters.NewContextFilter(),
		filters.NewRateLimitFilter(rdb, logger.Named("ratelimit")),
	)
	dispatcher := filters.NewDispatcher(reg, map[endpointdomain.Security]*filters.Chain{
		endpointdomain.SecurityPublic: publicChain,
		endpointdomain.SecurityJWT:    jwtChain,
	}, jwtChain, logger.Named("dispatcher"))

	router := server.NewAuthRouter(server.AuthRouterDeps{
		Dispatcher: dispatcher,
		Auth: accounthandler.NewHTTP(authService, accounthandler.CookieConfig{
			AuthName:    cfg.AuthCookieName,
			RefreshName: cfg.RefreshCookieName,
			Secure:      cfg.CookieSecure,
			AccessTTL:   cfg.AccessTTL(),
			RefreshTTL:  cfg.RefreshTTL(),
		}, keyring, logger.Named("auth-http")),
		Sessions: sessionhandler.NewHTTP(sessionService, logger.Named("session-http")),
		DB:       database,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	// Let in-flight async event emits drain before closing the exporters.
	time.Sleep(events.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("otel shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
