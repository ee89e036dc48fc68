// File: cmd/server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ezm_trade_backend/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "ezm-trade",
	Short: "EZM Trade backend",
	Long: `EZM Trade backend API.

Without a subcommand the HTTP server is started.

Available subcommands:
  serve                - Start the HTTP server and background jobs
  trigger-check        - Run every notification trigger once and exit
  expire-notifications - Deactivate expired notifications once and exit
  issue-token          - Print an access token for an existing user`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background jobs",
	RunE:  runServe,
}

var triggerCheckCmd = &cobra.Command{
	Use:   "trigger-check",
	Short: "Run every notification trigger once and exit",
	RunE:  runTriggerCheck,
}

var expireNotificationsCmd = &cobra.Command{
	Use:   "expire-notifications",
	Short: "Deactivate expired notifications once and exit",
	RunE:  runExpireNotifications,
}

var issueTokenUserID string

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "Print an access token for an existing user",
	RunE:  runIssueToken,
}

func init() {
	issueTokenCmd.Flags().StringVar(&issueTokenUserID, "user-id", "", "ID of the user to issue the token for")
	_ = issueTokenCmd.MarkFlagRequired("user-id")

	rootCmd.AddCommand(serveCmd, triggerCheckCmd, expireNotificationsCmd, issueTokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("FATAL: Failed to load configuration: %v", err)
		return err
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Printf("FATAL: Failed to initialize server: %v", err)
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Println("INFO: Shutdown signal received. Shutting down server...")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
		return err
	}
	log.Println("INFO: Server shutdown complete.")
	return nil
}

func runTriggerCheck(cmd *cobra.Command, _ []string) error {
	tk, cleanup, err := loadToolkit()
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := tk.jobs.RunTriggerCheck(cmd.Context())
	if encErr := json.NewEncoder(cmd.OutOrStdout()).Encode(stats); encErr != nil {
		return encErr
	}
	if err != nil {
		tk.logger.Error("Trigger check finished with failures", zap.Error(err))
		return err
	}
	return nil
}

func runExpireNotifications(cmd *cobra.Command, _ []string) error {
	tk, cleanup, err := loadToolkit()
	if err != nil {
		return err
	}
	defer cleanup()

	count, err := tk.jobs.RunExpiry(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d notifications deactivated\n", count)
	return nil
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(issueTokenUserID)
	if err != nil {
		return fmt.Errorf("invalid --user-id: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// Without a shared secret the token would be signed with a key no server knows.
	if strings.TrimSpace(cfg.JWTSecretKey) == "" {
		return errors.New("JWT_SECRET_KEY must be set to issue tokens")
	}

	tk, cleanup, err := initializeToolkit(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	usr, err := tk.users.GetUserByID(cmd.Context(), userID)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return fmt.Errorf("user %s is inactive", userID)
	}
	token, expiresAt, err := tk.tokens.GenerateAccessToken(usr)
	if err != nil {
		return err
	}
	return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
		"access_token": token,
		"expires_at":   expiresAt,
		"role":         usr.Role,
	})
}

func loadToolkit() (*toolkit, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return initializeToolkit(cfg)
}
