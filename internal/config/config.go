// Package config persists the user's download defaults in a small JSON file
// and resolves the directories ytpp works in.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lvcoi/ytpp/internal/downloader"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// App names the config and temp directories.
	App = "ytpp"

	KeyDownloadDir    = "downloadDIR"
	KeyDefaultStream  = "defaultStream"
	KeyDefaultCaption = "defaultCaption"

	// EnvConfigPath overrides the directory holding config.json.
	EnvConfigPath = "YTPP_CONFIG_PATH"

	fileName = "config.json"
)

// Config is the persisted user configuration. Field tags keep the on-disk key
// casing, which viper would otherwise lowercase.
type Config struct {
	DownloadDir    string `json:"downloadDIR"`
	DefaultStream  string `json:"defaultStream"`
	DefaultCaption string `json:"defaultCaption"`
}

// Paths are the directories shown by --show-config.
type Paths struct {
	ConfigDir string
	TempDir   string
}

// Store reads and writes Config through an afero filesystem.
type Store struct {
	fs        afero.Fs
	configDir string
	tempDir   string
}

// New returns a Store on fs rooted at the platform config directory, or at
// $YTPP_CONFIG_PATH when set.
func New(fs afero.Fs) (*Store, error) {
	dir := os.Getenv(EnvConfigPath)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, App)
	}
	return &Store{
		fs:        fs,
		configDir: dir,
		tempDir:   filepath.Join(os.TempDir(), App),
	}, nil
}

// NewOS is New on the real filesystem.
func NewOS() (*Store, error) {
	return New(afero.NewOsFs())
}

// Defaults returns the factory configuration.
func Defaults() Config {
	return Config{
		DownloadDir:    defaultDownloadDir(),
		DefaultStream:  downloader.StreamMax,
		DefaultCaption: downloader.DefaultCaptionNone,
	}
}

func defaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "YTPP Downloads")
	}
	return filepath.Join(home, "Downloads", "YTPP Downloads")
}

func (s *Store) path() string {
	return filepath.Join(s.configDir, fileName)
}

func (s *Store) viper() *viper.Viper {
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(s.path())
	v.SetConfigType("json")
	v.SetEnvPrefix(App)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault(KeyDownloadDir, defaults.DownloadDir)
	v.SetDefault(KeyDefaultStream, defaults.DefaultStream)
	v.SetDefault(KeyDefaultCaption, defaults.DefaultCaption)
	return v
}

// Load merges defaults, config.json and YTPP_* environment overrides.
// A missing file yields the defaults.
func (s *Store) Load() (Config, error) {
	v := s.viper()
	exists, err := afero.Exists(s.fs, s.path())
	if err != nil {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", s.path(), err)
		}
	}
	return Config{
		DownloadDir:    v.GetString(KeyDownloadDir),
		DefaultStream:  v.GetString(KeyDefaultStream),
		DefaultCaption: v.GetString(KeyDefaultCaption),
	}, nil
}

// Update stores one key. Unknown keys are rejected.
func (s *Store) Update(key, value string) error {
	cfg, err := s.stored()
	if err != nil {
		return err
	}
	switch key {
	case KeyDownloadDir:
		cfg.DownloadDir = value
	case KeyDefaultStream:
		cfg.DefaultStream = value
	case KeyDefaultCaption:
		cfg.DefaultCaption = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return s.save(cfg)
}

// stored reads config.json over the defaults without env overrides, so an
// update never persists a value that only came from the environment.
func (s *Store) stored() (Config, error) {
	cfg := Defaults()
	data, err := afero.ReadFile(s.fs, s.path())
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", s.path(), err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", s.path(), err)
	}
	return cfg, nil
}

func (s *Store) save(cfg Config) error {
	if err := s.fs.MkdirAll(s.configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.path(), append(data, '\n'), 0o644)
}

// Reset removes config.json. It reports false when there was nothing to reset.
func (s *Store) Reset() (bool, error) {
	exists, err := afero.Exists(s.fs, s.path())
	if err != nil || !exists {
		return false, err
	}
	if err := s.fs.Remove(s.path()); err != nil {
		return false, fmt.Errorf("remove config: %w", err)
	}
	return true, nil
}

// SetDownloadDir stores path as the download folder. It reports false when
// path is already configured. path must be an existing directory.
func (s *Store) SetDownloadDir(path string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	if path == cfg.DownloadDir {
		return false, nil
	}
	ok, err := afero.DirExists(s.fs, path)
	if err != nil || !ok {
		return false, downloader.CategorizedError{
			Category: downloader.CategoryDestinationInvalid,
			Err:      fmt.Errorf("invalid download folder path %q", path),
		}
	}
	return true, s.Update(KeyDownloadDir, path)
}

// SetDefaultStream stores a tier name, "mp3" or "max".
func (s *Store) SetDefaultStream(stream string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	if stream == cfg.DefaultStream {
		return false, nil
	}
	if !downloader.IsValidDefaultStream(stream) {
		return false, downloader.CategorizedError{
			Category: downloader.CategoryStreamUnavailable,
			Err:      fmt.Errorf("invalid default stream %q", stream),
		}
	}
	return true, s.Update(KeyDefaultStream, stream)
}

// SetDefaultCaption stores a caption code, or "none" to disable captions.
// Codes are not checked here since availability depends on the video.
func (s *Store) SetDefaultCaption(code string) (bool, error) {
	cfg, err := s.Load()
	if err != nil {
		return false, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		code = downloader.DefaultCaptionNone
	}
	if code == cfg.DefaultCaption {
		return false, nil
	}
	return true, s.Update(KeyDefaultCaption, code)
}

// Paths returns the config and temp directories.
func (s *Store) Paths() Paths {
	return Paths{ConfigDir: s.configDir, TempDir: s.tempDir}
}

// TempDir returns the scratch directory, creating it if needed.
func (s *Store) TempDir() (string, error) {
	if err := s.fs.MkdirAll(s.tempDir, 0o755); err != nil {
		return "", downloader.CategorizedError{
			Category: downloader.CategoryFilesystem,
			Err:      fmt.Errorf("create temp dir: %w", err),
		}
	}
	return s.tempDir, nil
}

// ClearTemp deletes every regular file in the temp directory and returns the
// removed names. Failures on single files are passed to onError and skipped.
func (s *Store) ClearTemp(onError func(name string, err error)) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.tempDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list temp dir: %w", err)
	}
	var removed []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		if err := s.fs.Remove(filepath.Join(s.tempDir, entry.Name())); err != nil {
			if onError != nil {
				onError(entry.Name(), err)
			}
			continue
		}
		removed = append(removed, entry.Name())
	}
	return removed, nil
}
