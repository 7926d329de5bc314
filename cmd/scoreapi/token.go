package main

import (
	"fmt"
	"time"

	"github.com/artpar/scoreapi/adapters/hasher"
	"github.com/artpar/scoreapi/config"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/spf13/cobra"
)

var (
	tokenAccount string
	tokenLogin   string
	tokenAt      string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the token a caller must present",
	Long: `Print the token expected for an account/login pair using the
configured salts and digest.

Admin tokens change every hour; use --at to compute one for a
different time.

Examples:
  scoreapi token --account horns --login hoofs
  scoreapi token --login admin --at 2024-01-15T12:00:00Z`,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenAccount, "account", "", "caller account")
	tokenCmd.Flags().StringVar(&tokenLogin, "login", "", "caller login")
	tokenCmd.Flags().StringVar(&tokenAt, "at", "", "RFC 3339 time for admin tokens (default: now)")
	tokenCmd.MarkFlagRequired("login")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	digest, err := hasher.New(cfg.Auth.Digest)
	if err != nil {
		return err
	}

	now := time.Now()
	if tokenAt != "" {
		now, err = time.Parse(time.RFC3339, tokenAt)
		if err != nil {
			return fmt.Errorf("invalid --at: %w", err)
		}
	}

	secrets := auth.Secrets{
		Salt:       cfg.Auth.Salt,
		AdminLogin: cfg.Auth.AdminLogin,
		AdminSalt:  cfg.Auth.AdminSalt,
	}
	creds := auth.Credentials{Account: tokenAccount, Login: tokenLogin}

	fmt.Fprintln(cmd.OutOrStdout(), auth.ExpectedToken(creds, secrets, now, digest.Sum))
	return nil
}
