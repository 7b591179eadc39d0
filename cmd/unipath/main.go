package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"UniPath/internal/auth"
	"UniPath/internal/bootstrap"
	"UniPath/internal/config"
	"UniPath/internal/deadline"
	"UniPath/pkg/routes"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const startTimeout = 30 * time.Second

func main() {
	bootstrap.Loadenv()
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "unipath",
		Short:        "Study-abroad advisory backend",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the deadline scheduler",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve()
			},
		},
		sweepCmd(),
		cleanupCmd(),
		indexesCmd(),
		promoteCmd(),
	)
	return cmd
}

func serve() error {
	app := fx.New(
		routes.CoreModules,
		routes.ServiceModules,
		routes.EchoModules,
		fx.WithLogger(bootstrap.FxLogger),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

// oneShot starts the core and service graph without the HTTP server, fills
// targets, runs fn and stops the graph again.
func oneShot(fn func(ctx context.Context) error, targets ...interface{}) error {
	app := fx.New(
		routes.CoreModules,
		routes.ServiceModules,
		fx.WithLogger(bootstrap.FxLogger),
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return err
	}
	startCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), startTimeout)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()
	return fn(context.Background())
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one deadline sweep now",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sweeper *deadline.Sweeper
			return oneShot(func(ctx context.Context) error {
				res, err := sweeper.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: scanned %d users, created %d notifications, %d users failed\n",
					res.RunID, res.UsersScanned, res.Created, res.FailedUsers)
				return nil
			}, &sweeper)
		},
	}
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove old read deadline notifications and expired status notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cleaner *deadline.Cleaner
			return oneShot(func(ctx context.Context) error {
				res, err := cleaner.Run(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged read deadline notifications from %d profiles, removed %d expired status notifications\n",
					res.ProfilesTouched, res.StatusRemoved)
				return nil
			}, &cleaner)
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create collection indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				repos  routes.Repositories
				logger *zap.Logger
			)
			return oneShot(func(ctx context.Context) error {
				return config.EnsureAll(ctx, logger, repos.Ensurers()...)
			}, &repos, &logger)
		},
	}
}

func promoteCmd() *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "promote",
		Short: "Change a user's role",
		RunE: func(cmd *cobra.Command, args []string) error {
			var users *auth.UserService
			return oneShot(func(ctx context.Context) error {
				if err := users.PromoteUser(ctx, email, role); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, role)
				return nil
			}, &users)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email of the user to promote")
	cmd.Flags().StringVar(&role, "role", auth.RoleStaff, "Role to grant (student, staff, admin)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
