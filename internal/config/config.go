// Package config loads signlens settings from defaults, an optional YAML
// file and SIGNLENS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/ayusman/signlens/internal/capture"
	"github.com/ayusman/signlens/internal/detector"
	"github.com/ayusman/signlens/internal/plugin"
	"github.com/ayusman/signlens/internal/recognizer"
	"github.com/ayusman/signlens/internal/stabilizer"
)

// EnvPrefix prefixes environment overrides, e.g. SIGNLENS_SERVER_ADDR.
const EnvPrefix = "SIGNLENS"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

type Server struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

type Store struct {
	// Path of the SQLite file. Empty selects ~/.signlens/signlens.db.
	Path string `mapstructure:"path" yaml:"path"`
}

type Camera struct {
	Device int `mapstructure:"device" yaml:"device"`
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	FPS    int `mapstructure:"fps" yaml:"fps"`
	// IdleFPS applies while the scene is still.
	IdleFPS int `mapstructure:"idle_fps" yaml:"idle_fps"`
	// ActivityChange is the percentage of changed pixels that wakes tracking.
	ActivityChange float64       `mapstructure:"activity_change" yaml:"activity_change"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

type Tracker struct {
	MinConfidence   float64 `mapstructure:"min_confidence" yaml:"min_confidence"`
	MinTrackingConf float64 `mapstructure:"min_tracking_confidence" yaml:"min_tracking_confidence"`
	Face            bool    `mapstructure:"face" yaml:"face"`
}

type Recognition struct {
	Mode                string        `mapstructure:"mode" yaml:"mode"`
	BufferCapacity      int           `mapstructure:"buffer_capacity" yaml:"buffer_capacity"`
	GestureInterval     time.Duration `mapstructure:"gesture_interval" yaml:"gesture_interval"`
	LetterCooldown      time.Duration `mapstructure:"letter_cooldown" yaml:"letter_cooldown"`
	LetterMinConfidence float64       `mapstructure:"letter_min_confidence" yaml:"letter_min_confidence"`
	PresenceFrames      int           `mapstructure:"presence_frames" yaml:"presence_frames"`
	AbsenceFrames       int           `mapstructure:"absence_frames" yaml:"absence_frames"`
}

type Plugins struct {
	// Dir holds plugin subdirectories. Empty selects ~/.signlens/plugins.
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// Root is the full configuration.
type Root struct {
	Server      Server      `mapstructure:"server" yaml:"server"`
	Store       Store       `mapstructure:"store" yaml:"store"`
	Camera      Camera      `mapstructure:"camera" yaml:"camera"`
	Tracker     Tracker     `mapstructure:"tracker" yaml:"tracker"`
	Recognition Recognition `mapstructure:"recognition" yaml:"recognition"`
	Plugins     Plugins     `mapstructure:"plugins" yaml:"plugins"`
	Log         Log         `mapstructure:"log" yaml:"log"`
}

func setDefaults(v *viper.Viper) {
	letters := stabilizer.DefaultLetterConfig()
	activity := capture.DefaultActivityConfig()
	tracker := detector.DefaultConfig()

	v.SetDefault("server.addr", "127.0.0.1:8420")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("store.path", "")

	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", capture.DefaultWidth)
	v.SetDefault("camera.height", capture.DefaultHeight)
	v.SetDefault("camera.fps", capture.DefaultFPS)
	v.SetDefault("camera.idle_fps", activity.IdleFPS)
	v.SetDefault("camera.activity_change", activity.Change)
	v.SetDefault("camera.idle_timeout", activity.IdleTimeout)

	v.SetDefault("tracker.min_confidence", tracker.MinConfidence)
	v.SetDefault("tracker.min_tracking_confidence", tracker.MinTrackingConf)
	v.SetDefault("tracker.face", tracker.TrackFace)

	v.SetDefault("recognition.mode", string(recognizer.ModeBoth))
	v.SetDefault("recognition.buffer_capacity", recognizer.DefaultConfig().BufferCapacity)
	v.SetDefault("recognition.gesture_interval", stabilizer.DefaultGestureInterval)
	v.SetDefault("recognition.letter_cooldown", letters.Cooldown)
	v.SetDefault("recognition.letter_min_confidence", letters.MinConfidence)
	v.SetDefault("recognition.presence_frames", stabilizer.DefaultPresentAfter)
	v.SetDefault("recognition.absence_frames", stabilizer.DefaultAbsentAfter)

	v.SetDefault("plugins.dir", "")
	v.SetDefault("plugins.timeout", plugin.DefaultTimeout)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads the configuration. An empty path searches for signlens.yaml
// in the working directory and ~/.config/signlens; a missing file there is
// not an error. An explicit path must exist.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("signlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/signlens")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		log.WithField("file", v.ConfigFileUsed()).Debug("Loaded config file")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var root Root
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

// Validate checks ranges that would otherwise surface as odd runtime
// behavior.
func (r *Root) Validate() error {
	if _, err := recognizer.ParseMode(r.Recognition.Mode); err != nil {
		return fmt.Errorf("%w: recognition.mode: %v", ErrInvalid, err)
	}
	switch {
	case r.Server.Addr == "":
		return fmt.Errorf("%w: server.addr is empty", ErrInvalid)
	case r.Camera.FPS <= 0 || r.Camera.IdleFPS <= 0:
		return fmt.Errorf("%w: camera frame rates must be positive", ErrInvalid)
	case r.Recognition.BufferCapacity <= 0:
		return fmt.Errorf("%w: recognition.buffer_capacity must be positive", ErrInvalid)
	case r.Recognition.GestureInterval <= 0:
		return fmt.Errorf("%w: recognition.gesture_interval must be positive", ErrInvalid)
	case r.Recognition.LetterMinConfidence < 0 || r.Recognition.LetterMinConfidence >= 1:
		return fmt.Errorf("%w: recognition.letter_min_confidence must be in [0, 1)", ErrInvalid)
	case r.Recognition.PresenceFrames <= 0 || r.Recognition.AbsenceFrames <= 0:
		return fmt.Errorf("%w: presence and absence frames must be positive", ErrInvalid)
	}
	if _, err := log.ParseLevel(r.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// dataDir is where per-user files live when no path is configured.
func dataDir(elem ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(append([]string{home, ".signlens"}, elem...)...), nil
}

// StorePath resolves the database path and creates its directory.
func (r *Root) StorePath() (string, error) {
	path := r.Store.Path
	if path == "" {
		var err error
		if path, err = dataDir("signlens.db"); err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return path, nil
}

// PluginDir resolves the plugin directory. It may not exist.
func (r *Root) PluginDir() (string, error) {
	if r.Plugins.Dir != "" {
		return r.Plugins.Dir, nil
	}
	return dataDir("plugins")
}

// Engine returns the recognizer settings.
func (r *Root) Engine() recognizer.Config {
	mode, _ := recognizer.ParseMode(r.Recognition.Mode)
	letters := stabilizer.DefaultLetterConfig()
	letters.Cooldown = r.Recognition.LetterCooldown
	letters.MinConfidence = r.Recognition.LetterMinConfidence

	return recognizer.Config{
		Mode:            mode,
		BufferCapacity:  r.Recognition.BufferCapacity,
		GestureInterval: r.Recognition.GestureInterval,
		Letters:         letters,
		PresentAfter:    r.Recognition.PresenceFrames,
		AbsentAfter:     r.Recognition.AbsenceFrames,
	}
}

// CameraConfig returns the capture device settings.
func (r *Root) CameraConfig() capture.Config {
	return capture.Config{
		Device: r.Camera.Device,
		Width:  r.Camera.Width,
		Height: r.Camera.Height,
		FPS:    r.Camera.FPS,
	}
}

// ActivityConfig returns the idle/active gate settings.
func (r *Root) ActivityConfig() capture.ActivityConfig {
	return capture.ActivityConfig{
		Change:      r.Camera.ActivityChange,
		IdleTimeout: r.Camera.IdleTimeout,
		IdleFPS:     r.Camera.IdleFPS,
		ActiveFPS:   r.Camera.FPS,
	}
}

// DetectorConfig returns the landmark tracker settings.
func (r *Root) DetectorConfig() detector.Config {
	cfg := detector.DefaultConfig()
	cfg.MinConfidence = r.Tracker.MinConfidence
	cfg.MinTrackingConf = r.Tracker.MinTrackingConf
	cfg.TrackFace = r.Tracker.Face
	return cfg
}

// ConfigureLogging applies the log section to the standard logrus logger.
func (r *Root) ConfigureLogging() {
	if level, err := log.ParseLevel(r.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if r.Log.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
