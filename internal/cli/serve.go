package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mailroom-dev/mailroom/internal/provider/gmail"
	"github.com/mailroom-dev/mailroom/internal/server"
)

// portScanRange is how many consecutive ports serve tries past the
// configured one when it is already taken.
const portScanRange = 20

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			port, err := findPort(rt.cfg.Port)
			if err != nil {
				return err
			}
			if port != rt.cfg.Port {
				rt.logger.Warn("preferred port taken, using fallback",
					"preferred", rt.cfg.Port, "port", port)
			}

			oauthCfg := gmail.OAuthConfig(
				rt.cfg.Gmail.ClientID, rt.cfg.Gmail.ClientSecret, rt.cfg.Gmail.RedirectURL)
			srv := server.New(rt.store, rt.box, rt.syncer, oauthCfg, rt.cfg.Token, rt.logger)

			done := make(chan os.Signal, 1)
			signal.Notify(done, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-done
				rt.logger.Info("shutting down")
				if err := srv.Shutdown(); err != nil {
					rt.logger.Error("shutdown failed", "error", err)
				}
			}()

			rt.logger.Info("listening", "port", port)
			return srv.Listen(fmt.Sprintf(":%d", port))
		},
	}
}

// findPort returns the first free TCP port at or above preferred, within
// portScanRange.
func findPort(preferred int) (int, error) {
	for port := preferred; port < preferred+portScanRange; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			continue
		}
		ln.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", preferred, preferred+portScanRange-1)
}
