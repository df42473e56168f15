// Command seed creates an administrator and a regular user and prints access
// tokens for both, for trying the notification gateway by hand. When event
// ingress is configured it also publishes user.registered for the regular
// user so the administrator receives a NEW_USER notification.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/taskhub/internal/config"
	"github.com/phrazzld/taskhub/internal/domain"
	"github.com/phrazzld/taskhub/internal/events"
	"github.com/phrazzld/taskhub/internal/platform/logger"
	"github.com/phrazzld/taskhub/internal/platform/postgres"
	"github.com/phrazzld/taskhub/internal/redact"
	"github.com/phrazzld/taskhub/internal/service/auth"
	"github.com/phrazzld/taskhub/internal/store"
	"github.com/redis/go-redis/v9"
)

type seedUser struct {
	email, first, last string
	roles              []domain.Role
}

func main() {
	adminEmail := flag.String("admin-email", "admin@taskhub.local", "administrator email")
	userEmail := flag.String("user-email", "user@taskhub.local", "regular user email")
	password := flag.String("password", "change-me-please", "password for both users")
	flag.Parse()

	users := []seedUser{
		{email: *adminEmail, first: "Ada", last: "Admin", roles: []domain.Role{domain.RoleAdmin, domain.RoleUser}},
		{email: *userEmail, first: "Uma", last: "User", roles: []domain.Role{domain.RoleUser}},
	}
	if err := run(users, *password); err != nil {
		slog.Error("seed failed", "error", redact.Error(err))
		os.Exit(1)
	}
}

func run(users []seedUser, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	userStore := postgres.NewPostgresUserStore(db, log)
	hasher := auth.NewBcryptHasher(0)

	var created []*domain.User
	for _, su := range users {
		u, err := createUser(ctx, userStore, hasher, su, password)
		if errors.Is(err, store.ErrEmailExists) {
			fmt.Printf("%s already exists, skipped\n", su.email)
			continue
		}
		if err != nil {
			return err
		}
		token, err := jwtService.GenerateToken(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("failed to issue token for %s: %w", su.email, err)
		}
		fmt.Printf("%s\n  id:    %s\n  roles: %v\n  token: %s\n\n", u.Email, u.ID, u.Roles.Strings(), token)
		created = append(created, u)
	}

	if cfg.Events.RedisAddr == "" {
		return nil
	}
	return announceRegistrations(ctx, cfg.Events, created)
}

func createUser(
	ctx context.Context,
	users store.UserStore,
	hasher auth.PasswordHasher,
	su seedUser,
	password string,
) (*domain.User, error) {
	u, err := domain.NewUser(su.email, su.first, su.last, password, su.roles...)
	if err != nil {
		return nil, fmt.Errorf("invalid seed user %s: %w", su.email, err)
	}
	if u.HashedPassword, err = hasher.Hash(password); err != nil {
		return nil, err
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", su.email, err)
	}
	return u, nil
}

// announceRegistrations publishes user.registered for every non-admin user.
func announceRegistrations(ctx context.Context, cfg config.EventsConfig, users []*domain.User) error {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()

	publisher := events.NewRedisPublisher(rdb, cfg.Channel)
	for _, u := range users {
		if u.Roles.IsAdmin() {
			continue
		}
		event, err := events.NewDomainEvent(events.TypeUserRegistered, events.UserPayload{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
		})
		if err != nil {
			return err
		}
		if err := publisher.EmitEvent(ctx, event); err != nil {
			return err
		}
		fmt.Printf("published %s for %s\n", event.Type, u.Email)
	}
	return nil
}
