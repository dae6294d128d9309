package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"datamarket/internal/config"
	"datamarket/internal/db"
	"datamarket/internal/model"
	"datamarket/internal/repository"
)

// bootDB loads config and opens the configured database.
func bootDB() (*gorm.DB, error) {
	cfg := config.Load()
	return db.Open(cfg.DBDriver, cfg.DatabaseDSN)
}

// marketctl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := bootDB()
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete")
		return nil
	},
}

var resetConfirmed bool

// marketctl reset --yes
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return errors.New("refusing to drop tables without --yes")
		}
		gormDB, err := bootDB()
		if err != nil {
			return err
		}
		if err := db.Reset(gormDB); err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Database reset")
		return nil
	},
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

// marketctl create-admin --email a@b.c --password secret [--name Admin]
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account, or promote an existing one",
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := bootDB()
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB); err != nil {
			return err
		}
		user, created, err := createAdmin(cmd.Context(), repository.NewUserRepository(gormDB), adminName, adminEmail, adminPassword)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (id %d)\n", user.Email, user.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s (id %d) to admin\n", user.Email, user.ID)
		}
		return nil
	},
}

// marketctl set-role <email> <admin|user>
var setRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change the role of an existing account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gormDB, err := bootDB()
		if err != nil {
			return err
		}
		user, err := setRole(cmd.Context(), repository.NewUserRepository(gormDB), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User role updated to %s for %s\n", user.Role, user.Email)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm dropping all data")

	createAdminCmd.Flags().StringVar(&adminName, "name", "Admin", "display name")
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}

// createAdmin inserts an admin account. When the email is already
// registered the existing account is promoted and its password kept.
func createAdmin(ctx context.Context, users repository.UserRepository, name, email, password string) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, false, errors.New("email and password are required")
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := users.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return nil, false, fmt.Errorf("promote %s: %w", email, err)
		}
		existing.Role = model.RoleAdmin
		return existing, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, fmt.Errorf("find %s: %w", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", email, err)
	}
	return user, true, nil
}

func setRole(ctx context.Context, users repository.UserRepository, email, role string) (*model.User, error) {
	r := model.Role(strings.ToLower(role))
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %q: must be admin or user", role)
	}
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no user with email %s", email)
		}
		return nil, err
	}
	if err := users.UpdateRole(ctx, user.ID, r); err != nil {
		return nil, err
	}
	user.Role = r
	return user, nil
}
