package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wasm-rgame/wargo/log"
	"github.com/wasm-rgame/wargo/util"
)

// DefaultRuntimeSource is the repository holding the released web runtime.
const DefaultRuntimeSource = "https://github.com/DarrenTsung/wasm-rgame-js.git"

// ProjectConfigFileName is the name of the optional per-project config file.
const ProjectConfigFileName = "Wargo.yaml"

const configFileName = "config.yaml"

type Runtime struct {
	// Source is a .git or .tar.gz URL the web runtime is fetched from.
	Source string `mapstructure:"source"`
	// Path is a local directory that replaces Source when set.
	Path string `mapstructure:"path"`
	// Package is the crate whose Cargo.lock version selects the runtime release.
	Package string `mapstructure:"package"`
}

type Config struct {
	Cargo       string   `mapstructure:"cargo"`
	WasmBindgen string   `mapstructure:"wasm_bindgen"`
	BindgenArgs []string `mapstructure:"bindgen_args"`
	Release     bool     `mapstructure:"release"`
	OutDir      string   `mapstructure:"out_dir"`
	TargetDir   string   `mapstructure:"target_dir"`
	Mirror      string   `mapstructure:"mirror"`
	CacheDir    string   `mapstructure:"cache_dir"`
	Runtime     Runtime  `mapstructure:"runtime"`
}

// Loader layers configuration sources. Flags bound with BindFlag win over
// WARGO_* environment variables, which win over the project Wargo.yaml, which
// wins over the user config file, which wins over defaults.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("WARGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cargo", "cargo")
	v.SetDefault("wasm_bindgen", "wasm-bindgen")
	v.SetDefault("bindgen_args", []string{})
	v.SetDefault("release", false)
	v.SetDefault("out_dir", "")
	v.SetDefault("target_dir", "target")
	v.SetDefault("mirror", "")
	v.SetDefault("cache_dir", "")
	v.SetDefault("runtime.source", DefaultRuntimeSource)
	v.SetDefault("runtime.path", "")
	v.SetDefault("runtime.package", "wasm-rgame")

	return &Loader{v}
}

// BindFlag makes a command-line flag override the config key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for config key '%s'", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads the user config (or explicitFile when set) and the project config
// found in projectRoot. Missing files are skipped.
func (l *Loader) Load(explicitFile, projectRoot string) (Config, error) {
	userFile := explicitFile
	if userFile == "" {
		configDir, err := ConfigDir()
		if err != nil {
			log.Debug("Unable to find wargo config directory: %s. Using default configuration.\n", err)
		} else {
			userFile = filepath.Join(configDir, configFileName)
		}
	}

	if userFile != "" {
		if err := l.merge(userFile, explicitFile != ""); err != nil {
			return Config{}, err
		}
	}

	if projectRoot != "" {
		if err := l.merge(filepath.Join(projectRoot, ProjectConfigFileName), false); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.CacheDir == "" {
		cacheDir, err := defaultCacheDir()
		if err != nil {
			return Config{}, err
		}
		cfg.CacheDir = cacheDir
	} else {
		cacheDir, err := homedir.Expand(cfg.CacheDir)
		if err != nil {
			return Config{}, fmt.Errorf("invalid cache_dir: %w", err)
		}
		cfg.CacheDir = cacheDir
	}

	log.Debug("Running with configuration: %+v\n", cfg)
	return cfg, nil
}

func (l *Loader) merge(file string, required bool) error {
	if !util.FileExists(file) {
		if required {
			return &util.FileError{Op: "read", Path: file, Err: os.ErrNotExist}
		}
		log.Debug("No configuration file at '%s'.\n", file)
		return nil
	}

	l.v.SetConfigFile(file)
	if err := l.v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read configuration file '%s': %w", file, err)
	}
	log.Debug("Loaded configuration from '%s'.\n", file)
	return nil
}

// ConfigDir returns the directory holding the user configuration file.
func ConfigDir() (string, error) {
	if dir := os.Getenv("WARGO_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "wargo"), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to locate the configuration directory: %w", err)
	}
	return filepath.Join(home, ".config", "wargo"), nil
}

func defaultCacheDir() (string, error) {
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return filepath.Join(xdgCacheHome, "wargo"), nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("unable to locate the cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", "wargo"), nil
}
