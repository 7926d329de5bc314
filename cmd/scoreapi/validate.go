package main

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/scoreapi/adapters/clock"
	"github.com/artpar/scoreapi/bootstrap"
	"github.com/artpar/scoreapi/config"
	"github.com/artpar/scoreapi/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var validateCheckStore bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the configuration file and print a summary.

Examples:
  scoreapi validate
  scoreapi validate --config /etc/scoreapi/config.yaml --check-store`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckStore, "check-store", false, "check that the store backend is reachable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		fmt.Fprintf(out, "      Error: %v\n", err)
		return fmt.Errorf("configuration invalid")
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Digest: %s\n", checkMark, cfg.Auth.Digest)
	fmt.Fprintf(out, "  %s Store: %s (attempts %d, backoff %s)\n", checkMark, cfg.Store.Backend, cfg.Store.MaxAttempts, cfg.Store.Backoff)
	fmt.Fprintf(out, "  %s Score TTL: %s\n", checkMark, cfg.Scoring.ScoreTTL)

	if validateCheckStore {
		if err := checkStore(cfg.Store); err != nil {
			fmt.Fprintf(out, "  %s Store reachable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Store reachable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkStore(cfg config.StoreConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	kv, closeFn, err := bootstrap.OpenBackend(ctx, cfg, clock.Real{}, zerolog.Nop())
	if err != nil {
		return err
	}
	defer closeFn()

	if hc, ok := kv.(ports.HealthChecker); ok {
		return hc.Ping(ctx)
	}
	return nil
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
