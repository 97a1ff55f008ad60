// Profileserver serves the profile read model. It authenticates requests by
// validating sessions against the auth service and keeps its projection
// current by consuming account events from Kafka.
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

	"dinehub/backend/internal/config"
	"dinehub/backend/internal/db"
	endpointdomain "dinehub/backend/internal/endpoint/domain"
	endpointrepo "dinehub/backend/internal/endpoint/repository"
	"dinehub/backend/internal/endpoint/registry"
	"dinehub/backend/internal/events/consumer"
	"dinehub/backend/internal/events/dedup"
	"dinehub/backend/internal/observability/logger"
	"dinehub/backend/internal/observability/otel"
	profilehandler "dinehub/backend/internal/profile/handler"
	profilerepo "dinehub/backend/internal/profile/repository"
	profileservice "dinehub/backend/internal/profile/service"
	"dinehub/backend/internal/security"
	"dinehub/backend/internal/server"
	"dinehub/backend/internal/server/filters"
	"dinehub/backend/internal/session/authority"
	sessionrepo "dinehub/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	logger.Init(logger.Config{Env: cfg.Env, Level: cfg.LogLevel, Service: "profileserver"})
	log := logger.L()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "profileserver", cfg.OTLPInsecure)
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

	pubKey, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatal("jwt public key", zap.Error(err))
	}
	// Verification only: this service never signs tokens.
	tokens := security.NewTokenProvider(nil, pubKey, cfg.JWTIssuer, cfg.JWTAudience,
		cfg.AccessTTL(), cfg.RefreshTTL())

	var keyring *security.Keyring
	if cfg.TokenEncryptionEnabled {
		encPriv, err := security.ParseRSAPrivateKey(cfg.TokenEncryptionPrivateKey)
		if err != nil {
			log.Fatal("token encryption private key", zap.Error(err))
		}
		keyring = security.NewKeyring(cfg.TokenEncryptionKeyID)
		keyring.Add(cfg.TokenEncryptionKeyID, security.NewTokenCipher(encPriv, nil))
	}

	// Sessions normally live in the auth service and every check goes over
	// the wire; local mode is for deployments sharing the sessions table.
	var sessionAuthority authority.Authority
	if cfg.SessionAuthorityMode == "local" {
		sessionAuthority = authority.NewLocal(sessionrepo.NewPostgresRepository(database), logger.Named("authority"))
	} else {
		sessionAuthority = authority.NewRemote(cfg.AuthServiceBaseURL, cfg.RemoteTimeout(), logger.Named("authority"))
	}

	reg := registry.New(endpointrepo.NewPostgresRepository(database), cfg.RegistryCacheTTL())
	jwtChain := filters.NewChain("jwt",
		filters.NewContextFilter(),
		filters.NewRateLimitFilter(rdb, logger.Named("ratelimit")),
		filters.NewJWTFilter(tokens, keyring, sessionAuthority, cfg.AuthCookieName, logger.Named("jwt")),
	)
	publicChain := filters.NewChain("public",
		filters.NewContextFilter(),
		filters.NewRateLimitFilter(rdb, logger.Named("ratelimit")),
	)
	dispatcher := filters.NewDispatcher(reg, map[endpointdomain.Security]*filters.Chain{
		endpointdomain.SecurityPublic: publicChain,
		endpointdomain.SecurityJWT:    jwtChain,
	}, jwtChain, logger.Named("dispatcher"))

	profiles := profilerepo.NewPostgresRepository(database)
	projector := profileservice.NewProjector(profiles,
		dedup.New(rdb, 24*time.Hour), logger.Named("projector"))

	var eventConsumer *consumer.Consumer
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		eventConsumer = consumer.New(consumer.Config{
			Brokers:  brokers,
			Topic:    cfg.KafkaTopic,
			GroupID:  cfg.KafkaGroupID,
			DLQTopic: cfg.KafkaDLQTopic,
		}, projector.Handle, logger.Named("consumer"))
		go func() {
			if err := eventConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("consumer stopped", zap.Error(err))
			}
		}()
	} else {
		log.Warn("KAFKA_BROKERS unset; profile projection will not update")
	}

	router := server.NewProfileRouter(server.ProfileRouterDeps{
		Dispatcher: dispatcher,
		Profiles:   profilehandler.NewHTTP(profiles, logger.Named("profile-http")),
		DB:         database,
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
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if eventConsumer != nil {
		_ = eventConsumer.Close()
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Warn("otel shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
