package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/artpar/scoreapi/bootstrap"
	"github.com/spf13/cobra"
)

var interestsCmd = &cobra.Command{
	Use:   "interests",
	Short: "Manage stored client interests",
	Long: `Read and write the interest lists served by clients_interests.

Examples:
  scoreapi interests set 42 books hi-tech
  scoreapi interests get 42`,
}

var interestsSetCmd = &cobra.Command{
	Use:   "set <client-id> [interest...]",
	Short: "Store the interests of a client",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInterestsSet,
}

var interestsGetCmd = &cobra.Command{
	Use:   "get <client-id>",
	Short: "Print the interests of a client",
	Args:  cobra.ExactArgs(1),
	RunE:  runInterestsGet,
}

func init() {
	rootCmd.AddCommand(interestsCmd)
	interestsCmd.AddCommand(interestsSetCmd)
	interestsCmd.AddCommand(interestsGetCmd)
}

func runInterestsSet(cmd *cobra.Command, args []string) error {
	id, err := parseClientID(args[0])
	if err != nil {
		return err
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	interests := args[1:]
	ok, err := app.Scoring.SetInterests(context.Background(), id, interests)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("store unavailable: interests of client %d not saved", id)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s Stored %d interests for client %d\n", checkMark, len(interests), id)
	return nil
}

func runInterestsGet(cmd *cobra.Command, args []string) error {
	id, err := parseClientID(args[0])
	if err != nil {
		return err
	}

	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Shutdown()

	interests, err := app.Scoring.Interests(context.Background(), id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(interests)
}

// openApp wires the application without starting the HTTP server.
// Logs go to stderr so stdout stays machine readable.
func openApp(cmd *cobra.Command) (*bootstrap.App, error) {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Version:    version,
		Output:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return app, nil
}

func parseClientID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid client id %q", s)
	}
	return id, nil
}
