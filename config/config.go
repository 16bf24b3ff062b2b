package config

import (
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	ModelDir         string `toml:"model_dir"`
	PrimaryModel     string `toml:"primary_model"`
	FallbackModel    string `toml:"fallback_model"`
	ModelURL         string `toml:"model_url"`
	FallbackModelURL string `toml:"fallback_model_url"`

	Device  string `toml:"device"`
	Libonnx string `toml:"libonnx"`
}

var defaultConfig = Config{
	Host:          "0.0.0.0",
	Port:          "5000",
	ModelDir:      "models",
	PrimaryModel:  "crop_leaf_diseases_vit",
	FallbackModel: "vit-base-patch16-224",
	Device:        "cpu",
}

var (
	cfg      Config
	loadOnce sync.Once
)

func C() Config {
	loadOnce.Do(func() {
		cfg = load(defaultConfig)
	})
	return cfg
}

// load applies config.toml and environment overrides on top of base.
func load(base Config) Config {
	if _, err := os.Stat("config.toml"); err == nil {
		data, err := os.ReadFile("config.toml")
		if err != nil {
			panic(err)
		}
		if err := toml.Unmarshal(data, &base); err != nil {
			panic(err)
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		base.Port = port
	}
	return base
}
