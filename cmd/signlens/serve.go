package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/capture"
	"github.com/ayusman/signlens/internal/config"
	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/plugin"
	"github.com/ayusman/signlens/internal/recording"
	"github.com/ayusman/signlens/internal/server"
	"github.com/ayusman/signlens/internal/store"
	"github.com/ayusman/signlens/internal/transcript"
	"github.com/ayusman/signlens/internal/tray"
)

func newServeCmd() *cobra.Command {
	var (
		withTray   bool
		recordPath string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Recognize from the camera and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, withTray, recordPath)
		},
	}
	cmd.Flags().BoolVar(&withTray, "tray", false, "show a system tray menu")
	cmd.Flags().StringVar(&recordPath, "record", "", "save tracked landmarks to this recording file on exit")
	return cmd
}

func openStore(cfg *config.Root) (*store.Store, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.WithField("path", path).Info("Store opened")
	return st, nil
}

// newDetector prefers the MediaPipe tracker and falls back to a detector
// that never sees a hand.
func newDetector(cfg *config.Root) detector.Detector {
	mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig())
	if err == nil {
		log.Info("Using MediaPipe landmark tracking")
		return mp
	}
	log.WithError(err).Warn("MediaPipe not available, using mock detector")
	return detector.NewMockDetector()
}

func serve(ctx context.Context, cfg *config.Root, withTray bool, recordPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	appCfg := app.Config{Store: st, Engine: cfg.Engine(), SourceName: "camera"}
	if recordPath != "" {
		appCfg.Recorder = recording.NewRecorder(time.Now().Format("2006-01-02 15:04:05"), cfg.Recognition.Mode)
	}
	a := app.New(appCfg)

	if d := startPlugins(ctx, cfg); d != nil {
		a.Subscribe(d.Handle)
		defer d.Close()
	}

	src := app.NewLiveSource(
		capture.NewCamera(cfg.CameraConfig()),
		capture.NewActivityGate(cfg.ActivityConfig()),
		newDetector(cfg),
	)
	if err := src.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	srv := server.New(server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		App:       a,
		Preview:   src,
	})
	defer srv.Close()

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	httpErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- err
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(runCtx, src) }()

	if withTray {
		t := tray.New(a.IsEnabled())
		t.OnToggle(a.SetEnabled)
		t.OnClear(func() {
			if _, err := a.Edit(ctx, transcript.OpClear); err != nil {
				log.WithError(err).Warn("Failed to clear text")
			}
		})
		t.OnOpen(func() { openBrowser(browserURL(cfg.Server.Addr)) })
		t.OnQuit(cancelRun)
		a.Subscribe(t.Update)
		go func() {
			<-runCtx.Done()
			t.Quit()
		}()
		t.Run()
		cancelRun()
	}

	select {
	case err = <-runErr:
	case err = <-httpErr:
		cancelRun()
		<-runErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := httpSrv.Shutdown(shutdownCtx); serr != nil {
		log.WithError(serr).Warn("HTTP shutdown")
	}

	if appCfg.Recorder != nil {
		if serr := saveRecording(appCfg.Recorder, recordPath); serr != nil {
			log.WithError(serr).Error("Failed to save recording")
		}
	}
	return err
}

// startPlugins discovers commit plugins and starts delivering to them. It
// returns nil when there are none.
func startPlugins(ctx context.Context, cfg *config.Root) *plugin.Dispatcher {
	dir, err := cfg.PluginDir()
	if err != nil {
		log.WithError(err).Warn("No plugin directory")
		return nil
	}
	mgr := plugin.NewManager(dir)
	if err := mgr.Discover(); err != nil {
		log.WithError(err).WithField("dir", dir).Warn("Plugin discovery failed")
		return nil
	}
	plugins := mgr.List()
	if len(plugins) == 0 {
		return nil
	}
	for _, p := range plugins {
		log.WithFields(log.Fields{"plugin": p.Manifest.Name, "kinds": p.Manifest.Kinds}).Info("Plugin loaded")
	}

	d := plugin.NewDispatcher(mgr, plugin.NewExecutor(cfg.Plugins.Timeout), 0)
	d.Start(ctx)
	return d
}

func saveRecording(r *recording.Recorder, path string) error {
	rec := r.Recording()
	if len(rec.Frames) == 0 {
		log.Warn("Nothing recorded")
		return nil
	}
	if err := rec.Save(path); err != nil {
		return err
	}
	log.WithFields(log.Fields{"path": path, "frames": len(rec.Frames)}).Info("Recording saved")
	return nil
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.WithError(err).WithField("url", url).Warn("Failed to open browser")
	}
}
