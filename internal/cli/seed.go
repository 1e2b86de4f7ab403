package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/pm-tracker/internal/auth"
	"github.com/sakif/pm-tracker/internal/model"
	"github.com/sakif/pm-tracker/internal/repository"
	"github.com/sakif/pm-tracker/internal/server"
	"github.com/sakif/pm-tracker/internal/service"
)

type seedProject struct {
	title       string
	description string
	status      model.Status
}

type seedUser struct {
	name     string
	email    string
	password string
	projects []seedProject
}

var sampleData = []seedUser{
	{
		name: "Anurag Chowdhury", email: "anurag@example.com", password: "password123",
		projects: []seedProject{
			{"PM Tracker App", "Full-stack project management application with React, Express and MySQL", model.StatusInProgress},
			{"API Documentation", "Write comprehensive API docs for backend endpoints", model.StatusPending},
			{"Database Optimization", "Optimize database queries and add indexes", model.StatusCompleted},
		},
	},
	{
		name: "John Developer", email: "john@example.com", password: "secure456",
		projects: []seedProject{
			{"Mobile App Development", "Build React Native mobile app for project tracker", model.StatusPending},
			{"User Authentication", "Implement OAuth 2.0 integration", model.StatusInProgress},
			{"Testing Suite", "Write unit and integration tests", model.StatusCompleted},
		},
	},
	{
		name: "Sarah Designer", email: "sarah@example.com", password: "design789",
		projects: []seedProject{
			{"UI Redesign", "Update the frontend UI with modern design patterns", model.StatusInProgress},
			{"Figma Mockups", "Create comprehensive design mockups for all pages", model.StatusCompleted},
			{"Brand Guidelines", "Establish design system and brand guidelines", model.StatusPending},
		},
	},
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace all data with sample users and projects",
		Long: `Deletes every user and project, then creates three sample users with
three projects each and prints their credentials.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := server.OpenStore(ctx, a.cfg.Database, a.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := seed(ctx, store, auth.NewPasswordService(), a.logger); err != nil {
				return err
			}

			printf(cmd, "Seeded %d users.\n\nTest credentials:\n", len(sampleData))
			for i, u := range sampleData {
				printf(cmd, "  User %d: %s / %s\n", i+1, u.email, u.password)
			}
			return nil
		},
	}
}

func seed(ctx context.Context, store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) error {
	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("seed: clearing data: %w", err)
	}
	logger.Info("cleared existing data")

	projects := service.NewProjectService(store, logger)

	for _, su := range sampleData {
		hash, err := passwords.Hash(su.password)
		if err != nil {
			return fmt.Errorf("seed: hashing password for %s: %w", su.email, err)
		}
		name := su.name
		user := &model.User{Name: &name, Email: su.email, PasswordHash: hash}
		if err := store.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed: creating user %s: %w", su.email, err)
		}
		logger.Info("created user", slog.Int64("user_id", user.ID), slog.String("email", su.email))

		for _, sp := range su.projects {
			description, status := sp.description, sp.status
			_, err := projects.Create(ctx, user.ID, service.CreateProjectInput{
				Title:       sp.title,
				Description: &description,
				Status:      &status,
			})
			if err != nil {
				return fmt.Errorf("seed: creating project %q: %w", sp.title, err)
			}
		}
	}
	return nil
}
