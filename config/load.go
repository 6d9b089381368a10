package config

import (
	"dnshome/common"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var envKeys = []string{"domain", "username", "password", "update_interval"}

// Load reads the file at path, applies DNSHOME_* environment overrides,
// fills defaults and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Decode(f, filepath.Ext(path), os.LookupEnv)
}

// Decode is Load without the filesystem. ext selects the format; lookupEnv
// may be nil to disable environment overrides.
func Decode(r io.Reader, ext string, lookupEnv func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}

	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		err = toml.NewDecoder(r).Decode(&raw)
	case ".yaml", ".yml":
		err = yaml.NewDecoder(r).Decode(&raw)
		if err == io.EOF {
			err = nil
		}
	default:
		err = json.NewDecoder(r).Decode(&raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if lookupEnv != nil {
		for _, key := range envKeys {
			if v, ok := lookupEnv(envPrefix + strings.ToUpper(key)); ok {
				raw[key] = v
			}
		}
	}

	conf := &Config{}
	if err := common.WeakDecodeMap(raw, conf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	conf.setDefaults()

	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return conf, nil
}
