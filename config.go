package main

import (
	"log"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
)

// ConfigFileName is what it sounds like
const ConfigFileName = "frame-service.yml"

type Config struct {
	Addr      string `koanf:"addr"`
	PoolSize  int    `koanf:"pool_size"`
	MaxPixels int    `koanf:"max_pixels"`
	Debug     bool   `koanf:"debug"`
}

// loadConfig layers the optional YAML file over built-in defaults. The
// DEBUG=true environment variable forces debug logging either way.
func loadConfig() Config {
	k := koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"addr":       "127.0.0.1:8080",
		"pool_size":  DefaultPoolSize,
		"max_pixels": 4096 * 4096,
	}, "."), nil)

	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		log.Fatalf("error unmarshaling config: %v", err)
	}

	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg
}
