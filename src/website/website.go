package website

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"git.handmade.network/hmn/tablelog/src/config"
	"git.handmade.network/hmn/tablelog/src/logging"
	"git.handmade.network/hmn/tablelog/src/sessiondata"
	"github.com/spf13/cobra"
)

var WebsiteCommand = &cobra.Command{
	Use:   "tablelog",
	Short: "Run the tablelog session API",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("db") {
			config.Config.Driver = config.DBDriver(dbDriverFlag)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		defer logging.LogPanics(nil)
		logging.Info().Msg("Hello, tablelog!")

		store, err := OpenStore(context.Background())
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open the session store")
		}
		defer store.Close()

		var wg sync.WaitGroup

		// Create HTTP server
		wg.Add(1)
		server := http.Server{
			Addr:    config.Config.Addr,
			Handler: NewWebsiteRoutes(store, config.Config.CORS),
		}
		go func() {
			logging.Info().Str("addr", config.Config.Addr).Msg("Serving the API")
			serverErr := server.ListenAndServe()
			if !errors.Is(serverErr, http.ErrServerClosed) {
				logging.Error().Err(serverErr).Msg("Server shut down unexpectedly")
				wg.Done()
			}
			// Otherwise the wg.Done() happens in the shutdown logic below.
		}()

		// Wait for SIGINT or SIGTERM in the background and trigger graceful shutdown
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-signals // First signal (start shutdown)
			logging.Info().Msg("Shutting down the API")

			go func() {
				timeoutCtx, cancel := context.WithTimeout(context.Background(), config.Config.ShutdownTimeout)
				defer cancel()
				err := server.Shutdown(timeoutCtx)
				if err != nil {
					logging.Warn().Err(err).Msg("Server did not shut down gracefully")
				}
				wg.Done()
			}()

			<-signals // Second signal (force quit)
			logging.Warn().Msg("Forcibly killed the API")
			os.Exit(1)
		}()

		// Wait for all of the above to finish, then exit
		wg.Wait()
	},
}

var dbDriverFlag string

func init() {
	WebsiteCommand.Flags().StringVar(&config.Config.Addr, "addr", config.Config.Addr, "address to listen on")
	WebsiteCommand.PersistentFlags().StringVar(&dbDriverFlag, "db", string(config.Config.Driver), "database driver: postgres or sqlite")
}

// Opens the store picked by config.Config. Shared with the admin commands.
func OpenStore(ctx context.Context) (sessiondata.Store, error) {
	return sessiondata.Open(ctx, config.Config)
}
