package main

import (
	"fmt"

	"github.com/artpar/scoreapi/bootstrap"
	"github.com/spf13/cobra"
)

var (
	servePort    int
	serveLogFile string
	serveWatch   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the scoreapi HTTP server.

Configuration is read from scoreapi.yaml (or --config). When the file
does not exist, SCOREAPI_* environment variables are used instead.

Send SIGHUP to reload logging.level, store.max_attempts and store.backoff
without a restart.

Environment variables:
  SCOREAPI_SERVER_PORT    - Server port (default: 8080)
  SCOREAPI_STORE_BACKEND  - memory, redis, sqlite or postgres
  SCOREAPI_REDIS_ADDR     - Redis address (default: localhost:6379)
  SCOREAPI_LOG_LEVEL      - debug, info, warn, error

Examples:
  scoreapi serve
  scoreapi serve -p 8081 -l /var/log/scoreapi.log
  scoreapi serve --config /etc/scoreapi/config.yaml --watch`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")
	serveCmd.Flags().StringVarP(&serveLogFile, "log", "l", "", "log file path (default: stderr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the config file when it changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		Port:       servePort,
		LogFile:    serveLogFile,
		Version:    version,
		WatchFile:  serveWatch,
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	return app.Run()
}
