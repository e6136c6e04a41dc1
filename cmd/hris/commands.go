package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"hris/internal/app/server"
	"hris/internal/domain/auth"
	"hris/internal/domain/invitations"
	"hris/internal/domain/settings"
	"hris/internal/platform/config"
	"hris/internal/platform/db"
	"hris/internal/platform/email"
	"hris/internal/platform/jobs"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := server.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			if status {
				return db.MigrationStatus(cmd.Context(), pool)
			}
			return db.Migrate(cmd.Context(), pool)
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Print applied and pending migrations instead of migrating")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default tenant, leave types and first admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()
			return db.Seed(cmd.Context(), pool, cfg)
		},
	}
}

func newInviteCmd() *cobra.Command {
	var (
		tenantID string
		row      invitations.Row
	)
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Invite a user and send the set-password email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if tenantID == "" {
				if tenantID, err = db.DefaultTenantID(cmd.Context(), pool, cfg); err != nil {
					return err
				}
			} else if _, err := uuid.Parse(tenantID); err != nil {
				return fmt.Errorf("invalid --tenant: %w", err)
			}

			queue := inlineQueue{jobs: jobs.New(jobs.PGRecorder{DB: pool}, nil), ctx: cmd.Context()}
			svc := invitations.NewService(invitations.NewStore(pool), queue, email.New(cfg), settings.NewService(settings.NewStore(pool)), invitations.Options{
				TTL:         cfg.InviteTTL,
				BaseURL:     cfg.PublicBaseURL,
				DefaultFrom: cfg.EmailFrom,
			})
			inv, err := svc.Invite(cmd.Context(), auth.UserContext{TenantID: tenantID, RoleName: auth.RoleAdmin}, row)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(inv)
		},
	}
	cmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant UUID (defaults to the seeded tenant)")
	cmd.Flags().StringVar(&row.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&row.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&row.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&row.Role, "role", auth.RoleEmployee, "Role: employee, teamlead, hr, md or admin")
	cmd.Flags().StringVar(&row.Department, "department", "", "Department name or id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func connect(ctx context.Context) (config.Config, *pgxpool.Pool, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("connect database: %w", err)
	}
	return cfg, pool, nil
}

// inlineQueue runs jobs before the command exits; there is no worker.
type inlineQueue struct {
	jobs *jobs.Service
	ctx  context.Context
}

func (q inlineQueue) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	if _, err := q.jobs.RunNow(q.ctx, jobType, tenantID, run); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", jobType, err)
	}
}
