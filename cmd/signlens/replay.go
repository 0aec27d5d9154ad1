package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/config"
	"github.com/ayusman/signlens/internal/recognizer"
	"github.com/ayusman/signlens/internal/recording"
	"github.com/ayusman/signlens/internal/store"
)

func newReplayCmd() *cobra.Command {
	var (
		realtime bool
		persist  bool
	)

	cmd := &cobra.Command{
		Use:   "replay <recording.yaml>",
		Short: "Run a recorded landmark stream through the recognizer and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			text, err := replay(cmd.Context(), cfg, args[0], realtime, persist)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&realtime, "realtime", false, "pace frames by their timestamps")
	cmd.Flags().BoolVar(&persist, "persist", false, "store the replay as a session")
	return cmd
}

func replay(ctx context.Context, cfg *config.Root, path string, realtime, persist bool) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rec, err := recording.Load(path)
	if err != nil {
		return "", err
	}

	engine := cfg.Engine()
	if modeFlag == "" && rec.Mode != "" {
		// A recording made in one mode replays in that mode unless --mode says otherwise.
		if engine.Mode, err = recognizer.ParseMode(rec.Mode); err != nil {
			return "", fmt.Errorf("recording %s: %w", rec.Name, err)
		}
	}

	appCfg := app.Config{Engine: engine, SourceName: filepath.Base(path), ForceEnabled: true}
	if persist {
		var st *store.Store
		if st, err = openStore(cfg); err != nil {
			return "", err
		}
		defer st.Close()
		appCfg.Store = st
	}

	a := app.New(appCfg)

	log.WithFields(log.Fields{
		"recording": rec.Name,
		"frames":    len(rec.Frames),
		"duration":  rec.Duration(),
	}).Info("Replaying")

	start := time.Now()
	if err := a.Run(ctx, recording.NewPlayer(rec, start, realtime)); err != nil {
		return "", err
	}
	return a.Text(), nil
}
