package application

import (
	"errors"
	"fmt"
	"os"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"rickmorty-etl/lib/configutil"
	"time"

	"github.com/joho/godotenv"
)

const envApiUrl = "API_URL"

type ApiConfig struct {
	BaseUrl           string  `json:"base_url"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RetryCount        int     `json:"retry_count"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// the public api answers 404 for a page past the last one
	EndOfPagesStatus []int `json:"end_of_pages_status"`
	// every non-200 status fails the run, end_of_pages_status is ignored
	StrictPages bool `json:"strict_pages"`
}

type OutputConfig struct {
	Dir string `json:"dir"`
	// optional xlsx workbook with one sheet per table
	Workbook string `json:"workbook"`
	// optional sqlite database with one table per output
	Sqlite        string `json:"sqlite"`
	DisableCharts bool   `json:"disable_charts"`
	// draw chart bars with ansi colors
	ColorCharts bool `json:"color_charts"`
	// directory to dump every http exchange into
	DumpHttp string `json:"dump_http"`
}

type Config struct {
	Api       ApiConfig        `json:"api"`
	Output    OutputConfig     `json:"output"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func DefaultConfig() Config {
	return Config{
		Api: ApiConfig{
			BaseUrl:           "https://rickandmortyapi.com/api",
			TimeoutSeconds:    30,
			RetryCount:        2,
			RequestsPerSecond: 2,
			EndOfPagesStatus:  []int{404},
		},
		Output: OutputConfig{
			Dir: "results",
		},
	}
}

func (c ApiConfig) ClientOptions(dump telemetry.MessageOutput) rickmorty.ClientOptions {
	endOfPages := c.EndOfPagesStatus
	if c.StrictPages {
		endOfPages = nil
	}
	return rickmorty.ClientOptions{
		BaseUrl:           c.BaseUrl,
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		RetryCount:        c.RetryCount,
		RequestsPerSecond: c.RequestsPerSecond,
		EndOfPagesStatus:  endOfPages,
		Dump:              dump,
	}
}

// LoadConfig reads `configPath` (and its .local variant) over the defaults, a missing
// file is not an error. API_URL from the environment, or else from the dotenv file
// at `envPath`, overrides the api base url.
func LoadConfig(configPath, envPath string) (Config, error) {
	cfg, err := configutil.ReadConfig(configPath, DefaultConfig())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dotenv := map[string]string{}
	if envPath != "" {
		dotenv, err = godotenv.Read(envPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", envPath, err)
		}
	}

	if url, ok := lookupEnv(envApiUrl, dotenv); ok && url != "" {
		cfg.Api.BaseUrl = url
	}
	return cfg, nil
}

// process environment wins over the dotenv file, same as godotenv.Load
func lookupEnv(key string, dotenv map[string]string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if ok {
		return value, true
	}
	value, ok = dotenv[key]
	return value, ok
}
