package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	} `yaml:"app"`

	Search struct {
		Engine          string  `yaml:"engine"`
		ResultLimit     int     `yaml:"result_limit" split_words:"true"`
		TimeoutSeconds  int     `yaml:"timeout_seconds" split_words:"true"`
		UserAgent       string  `yaml:"user_agent" split_words:"true"`
		HTTPConcurrency int     `yaml:"http_concurrency" split_words:"true"`
		HostReqPerSec   float64 `yaml:"host_req_per_sec" split_words:"true"`
		HostBurst       int     `yaml:"host_burst" split_words:"true"`
	} `yaml:"search"`

	Crawl struct {
		ChunkSize           int  `yaml:"chunk_size" split_words:"true"`
		Concurrency         int  `yaml:"concurrency"`
		SkipExisting        bool `yaml:"skip_existing" split_words:"true"`
		RecheckNotFoundDays int  `yaml:"recheck_not_found_days" split_words:"true"`
	} `yaml:"crawl"`

	LLM struct {
		Enabled       bool   `yaml:"enabled"`
		Endpoint      string `yaml:"endpoint"`
		ContextWindow int    `yaml:"context_window" split_words:"true"`
	} `yaml:"llm"`
}

func Default() Config {
	var cfg Config
	cfg.App.Port = 38482
	cfg.App.DataDir = "."
	cfg.Search.Engine = "duckduckgo"
	cfg.Search.ResultLimit = 10
	cfg.Search.TimeoutSeconds = 15
	cfg.Search.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	cfg.Search.HTTPConcurrency = 8
	cfg.Search.HostReqPerSec = 1
	cfg.Search.HostBurst = 2
	cfg.Crawl.ChunkSize = 100
	cfg.Crawl.Concurrency = 5
	cfg.Crawl.SkipExisting = true
	cfg.Crawl.RecheckNotFoundDays = 30
	cfg.LLM.ContextWindow = 4096
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// URLFINDER_* environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}

	if err := envconfig.Process("urlfinder", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutSeconds) * time.Second
}
