package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagAddr != "" {
			overrides["server.addr"] = flagAddr
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		opts := []server.Option{server.WithLogger(log()), server.WithVersion(version)}
		if store := openHistory(cfg); store != nil {
			defer store.Close()
			opts = append(opts, server.WithHistory(store))
		}

		srv := server.New(cfg, newClient(cfg), opts...)
		fmt.Fprintf(cmd.OutOrStdout(), "lamp %s listening on http://%s\n", version, cfg.Server.Addr)
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().StringVar(&flagModel, "model", "", "Default model for requests that do not name one")
}
