// Package config holds the paths and tool parameters of a run.
//
// Every field has a default matching the historical relative layout, so
// running without a config file or flags works from the application folder.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	SourceFile string `yaml:"source_file" validate:"required"`

	Web      WebConfig      `yaml:"web"`
	Download DownloadConfig `yaml:"download"`
	Log      LogConfig      `yaml:"log"`
	Serve    ServeConfig    `yaml:"serve"`

	// DBPath enables the run history store when set.
	DBPath string `yaml:"db_path"`
}

// WebConfig configures the page-scraping variant.
type WebConfig struct {
	MappingFile    string `yaml:"mapping_file" validate:"required"`
	IdentifierFile string `yaml:"identifier_file" validate:"required"`
	LogFile        string `yaml:"log_file" validate:"required"`
}

// DownloadConfig configures the SteamCMD variant.
type DownloadConfig struct {
	MappingFile    string `yaml:"mapping_file" validate:"required"`
	IdentifierFile string `yaml:"identifier_file" validate:"required"`
	LogFile        string `yaml:"log_file" validate:"required"`
	SteamCMD       string `yaml:"steamcmd" validate:"required"`
	OutputDir      string `yaml:"output_dir" validate:"required"`
	AppID          string `yaml:"app_id" validate:"required,numeric"`
	RateLimitKbps  int    `yaml:"rate_limit_kbps" validate:"min=1"`
	Login          string `yaml:"login" validate:"required"`
	Password       string `yaml:"password"`
}

// LogConfig configures the log sink.
type LogConfig struct {
	Dir   string `yaml:"dir" validate:"required"`
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// ServeConfig configures the long-running mode.
type ServeConfig struct {
	Addr    string        `yaml:"addr" validate:"required"`
	Every   time.Duration `yaml:"every" validate:"min=0"`
	Variant string        `yaml:"variant" validate:"oneof=web download"`
	LogFile string        `yaml:"log_file" validate:"required"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	out := "Saves_and_Output"
	return Config{
		SourceFile: filepath.Join(out, "WorkshopID.txt"),
		Web: WebConfig{
			MappingFile:    filepath.Join(out, "Aufstellung.txt"),
			IdentifierFile: filepath.Join(out, "ModID.txt"),
			LogFile:        "extractor.log",
		},
		Download: DownloadConfig{
			MappingFile:    filepath.Join(out, "Aufstellung_deepsearch.txt"),
			IdentifierFile: filepath.Join(out, "ModID_deepsearch.txt"),
			LogFile:        "steam_extract.log",
			SteamCMD:       defaultSteamCMD(),
			OutputDir:      "Workshop_Files",
			AppID:          "108600",
			RateLimitKbps:  50000,
			Login:          "anonymous",
		},
		Log: LogConfig{Dir: "log", Level: "info"},
		Serve: ServeConfig{
			Addr:    ":8080",
			Variant: "web",
			LogFile: "serve.log",
		},
	}
}

func defaultSteamCMD() string {
	if runtime.GOOS == "windows" {
		return filepath.Join("src", "steamcmd", "steamcmd.exe")
	}
	return filepath.Join("src", "steamcmd", "steamcmd.sh")
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks required fields and value ranges.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New("invalid config: " + strings.Join(msgs, "; "))
}
