package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// seedPassword is the shared password for demo accounts created on first boot.
const seedPassword = "password123"

// SeedDemoUsers creates the demo accounts on first boot if no users exist.
// Returns the number of accounts created (zero if seeding was skipped).
func SeedDemoUsers(ctx context.Context, userRepo UserRepository, logger *slog.Logger) (int, error) {
	count, err := userRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking user count: %w", err)
	}

	if count > 0 {
		logger.Info("users exist, skipping demo seed")
		return 0, nil
	}

	hash, err := HashPassword(seedPassword)
	if err != nil {
		return 0, fmt.Errorf("hashing seed password: %w", err)
	}

	demos := []User{
		{Name: "Alice Johnson", Email: "alice@example.com", Role: RoleUser, PasswordHash: hash},
		{Name: "Bob Smith", Email: "bob@example.com", Role: RoleAdmin, PasswordHash: hash},
	}

	for i := range demos {
		if err := userRepo.Create(ctx, &demos[i]); err != nil {
			return i, fmt.Errorf("creating demo user %s: %w", demos[i].Email, err)
		}
	}

	logger.Warn("demo accounts created",
		"emails", []string{demos[0].Email, demos[1].Email},
		"password", seedPassword,
		"action_required", "change these passwords before exposing the server",
	)

	return len(demos), nil
}
