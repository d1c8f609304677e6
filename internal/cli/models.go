package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/providers"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model catalogue and connectivity checks",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known OpenRouter models",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		vendors, models := providers.ModelsByVendor()
		for _, v := range vendors {
			fmt.Fprintf(w, "%s:\n", v)
			for _, m := range models[v] {
				suffix := ""
				if providers.IsFreeModel(m) {
					suffix = " (free)"
				}
				if m == config.DefaultModel {
					suffix += " (default)"
				}
				fmt.Fprintf(w, "  - %s%s\n", m, suffix)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Any other OpenRouter model id can be passed with --model.")
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the API key and model with a tiny request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s at %s...\n", cfg.Model, cfg.BaseURL)

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		_, err = newClient(cfg).Submit(ctx, "Respond with exactly: ok", cfg.APIKey, cfg.Model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FAIL (%s): %v\n", providers.Kind(err), err)
			exitCode = exitCodeFor(err)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is configured and responding\n", cfg.Model)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
}
