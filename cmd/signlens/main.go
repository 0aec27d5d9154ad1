// Command signlens recognizes fingerspelled letters and common signs from a
// camera or a recorded landmark stream.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlens/internal/config"
)

var (
	configPath string
	modeFlag   string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "signlens",
		Short:         "Hand pose and sign gesture recognition",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./signlens.yaml or ~/.config/signlens/signlens.yaml)")
	root.PersistentFlags().StringVar(&modeFlag, "mode", "", "recognition mode: letters, gestures or both")

	root.AddCommand(newServeCmd(), newReplayCmd())
	return root
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (*config.Root, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if modeFlag != "" {
		cfg.Recognition.Mode = modeFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	cfg.ConfigureLogging()
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.WithError(err).Error("signlens failed")
		os.Exit(1)
	}
}
