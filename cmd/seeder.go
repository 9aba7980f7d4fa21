package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/korelearn/tutor-management/internal/core/datamodel/account"
	"github.com/korelearn/tutor-management/internal/identity"
	"github.com/korelearn/tutor-management/internal/identity/local"
	"github.com/korelearn/tutor-management/pkg/logger"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with sample accounts",
	Long:  `Seed the document store with sample accounts for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		lg := logger.L()
		deps := &Dependencies{Config: cfg, Logger: lg}

		store, err := initStore(cfg, deps)
		if err != nil {
			log.Fatalf("failed to init storage: %v", err)
		}

		identities := local.NewProvider(store, cfg.Security.BCryptCost, lg)
		ctx := context.Background()

		seeds := []struct {
			Email     string
			FirstName string
			LastName  string
			Role      string
			Status    string
		}{
			{"student@mail.com", "Sasha", "Student", account.RoleStudent, ""},
			{"tutor@mail.com", "Tunde", "Tutor", account.RoleTutor, account.StatusApproved},
			{"applicant@mail.com", "Amara", "Applicant", account.RoleTutorApplicant, account.StatusPendingReview},
		}

		for _, s := range seeds {
			userID, err := identities.CreateUser(ctx, s.Email, "password")
			if err != nil {
				if errors.Is(err, identity.ErrAlreadyExists) {
					fmt.Println("user already exists, skipping:", s.Email)
					continue
				}
				log.Fatalf("failed to create identity for %s: %v", s.Email, err)
			}

			name := s.FirstName + " " + s.LastName
			if err := identities.SetDisplayName(ctx, userID, name); err != nil {
				log.Fatalf("failed to set display name for %s: %v", s.Email, err)
			}

			now := time.Now().UTC()
			acc := &account.Account{
				ID:        userID,
				Email:     s.Email,
				Role:      s.Role,
				Status:    s.Status,
				FirstName: s.FirstName,
				LastName:  s.LastName,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := store.Put(ctx, account.Collection, userID, acc.Fields(), false); err != nil {
				log.Fatalf("failed to write account for %s: %v", s.Email, err)
			}

			fmt.Println("Seeded account:", s.Email, "role:", s.Role)
		}

		fmt.Println("Seeding complete. Default password: password")
	},
}
