package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pneumabot/internal/bots"
	"github.com/ziadkadry99/pneumabot/internal/logger"
	"github.com/ziadkadry99/pneumabot/internal/server"
	"github.com/ziadkadry99/pneumabot/internal/webchat"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for web chat and the WhatsApp bridge",
	Long: `Starts the pneumabot HTTP server. It serves the web chat API
(POST /api/chat, POST /api/reset, GET /api/chat/ws), the WhatsApp bridge
endpoint (POST /whatsapp/process) and the /healthz and /readyz probes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if cfg.Server.BridgeSecret == "" {
			a.log.Warn().Msg("bridge_secret is empty, the WhatsApp endpoint accepts any caller")
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAllOrigins,
		}, logger.With("http"), map[string]server.Check{
			"catalog": a.ping,
		})

		webchat.New(a.engine, logger.With("webchat")).RegisterRoutes(srv.Router())

		gateway := bots.NewGateway(bots.NewProcessor(a.engine))
		bots.RegisterRoutes(srv.Router(), bots.NewWhatsAppHandler(gateway, cfg.Server.BridgeSecret, logger.With("whatsapp")))

		fmt.Fprintf(os.Stderr, "pneumabot listening on :%d\n", cfg.Server.Port)
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
