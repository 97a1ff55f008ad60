// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev account (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	accountdomain "dinehub/backend/internal/account/domain"
	accountrepo "dinehub/backend/internal/account/repository"
	"dinehub/backend/internal/config"
	"dinehub/backend/internal/db"
	"dinehub/backend/internal/security"
)

const (
	devAccountEmail = "dev@example.com"
	devPassword     = "devpassword1"
)

// endpointSeed is one row of the endpoint descriptor catalog. Auth decisions
// live here, not in route registrations; new endpoints must be added to this
// catalog (or via ops tooling) to be reachable as anything but JWT-protected.
type endpointSeed struct {
	name      string
	method    string
	pattern   string
	security  string
	rateLimit int
	rateWin   time.Duration
	public    bool
}

var endpoints = []endpointSeed{
	{"health", "*", "/healthz", "PUBLIC", 0, 0, true},
	{"auth-register", "POST", "/api/v1/auth/register", "PUBLIC", 10, time.Minute, true},
	{"auth-login", "POST", "/api/v1/auth/login", "PUBLIC", 20, time.Minute, true},
	{"auth-refresh", "POST", "/api/v1/auth/refresh", "PUBLIC", 60, time.Minute, true},
	{"auth-logout", "POST", "/api/v1/auth/logout", "PUBLIC", 60, time.Minute, true},
	{"auth-logout-all", "POST", "/api/v1/auth/logout-all", "JWT", 0, 0, false},
	{"auth-account-delete", "DELETE", "/api/v1/auth/account", "JWT", 0, 0, false},
	// Server-to-server: remote authorities call this; it carries no user token.
	{"session-validate", "GET", "/api/v1/sessions/{sessionID}/validate", "PUBLIC", 0, 0, true},
	{"session-list", "GET", "/api/v1/sessions", "JWT", 0, 0, false},
	{"session-revoke", "DELETE", "/api/v1/sessions/{sessionID}", "JWT", 0, 0, false},
	{"profiles", "*", "/api/v1/profiles/**", "JWT", 0, 0, false},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	accounts := accountrepo.NewPostgresRepository(conn)

	existing, err := accounts.GetByEmail(ctx, devAccountEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()
	if err := accounts.Create(ctx, &accountdomain.Account{
		ID:           uuid.New().String(),
		Email:        devAccountEmail,
		Name:         "Dev Diner",
		PasswordHash: passwordHash,
		Roles:        []string{accountdomain.RoleCustomer, accountdomain.RoleAdmin},
		Status:       accountdomain.AccountStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		log.Fatalf("create dev account: %v", err)
	}

	for _, e := range endpoints {
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO endpoint_descriptors
			   (name, method, path_pattern, security, rate_limit, rate_window, is_public, is_active, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
			 ON CONFLICT (name) DO UPDATE SET
			   method = EXCLUDED.method,
			   path_pattern = EXCLUDED.path_pattern,
			   security = EXCLUDED.security,
			   rate_limit = EXCLUDED.rate_limit,
			   rate_window = EXCLUDED.rate_window,
			   is_public = EXCLUDED.is_public,
			   is_active = TRUE,
			   updated_at = EXCLUDED.updated_at`,
			e.name, e.method, e.pattern, e.security, e.rateLimit, int(e.rateWin.Seconds()), e.public, now,
		); err != nil {
			log.Fatalf("seed endpoint %s: %v", e.name, err)
		}
	}

	log.Printf("Seeded dev account %s and %d endpoint descriptors.", devAccountEmail, len(endpoints))
}
