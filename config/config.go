package config

import (
	"encoding/json"
	"os"
	"sync"
)

type Config struct {
	SisFolderPath      string `json:"sisFolderPath"`
	ExternalMatcherURL string `json:"externalMatcherURL"`
	MaxEditDistance    int    `json:"maxEditDistance"`
	SisPortalUserID    string `json:"sisPortalUserID"`
	SisPortalPassword  string `json:"sisPortalPassword"`
}

var (
	cfg Config
	mu  sync.RWMutex
)

const configFilePath = "./kishu_config.json"

func LoadConfig() (Config, error) {
	mu.Lock()
	defer mu.Unlock()

	file, err := os.ReadFile(configFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = Config{
				MaxEditDistance: 5,
			}
			return cfg, nil
		}
		return Config{}, err
	}

	var tempCfg Config
	if err := json.Unmarshal(file, &tempCfg); err != nil {
		return Config{}, err
	}
	cfg = tempCfg

	if cfg.MaxEditDistance == 0 {
		cfg.MaxEditDistance = 5
	}

	return cfg, nil
}

func SaveConfig(newCfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if newCfg.MaxEditDistance == 0 {
		newCfg.MaxEditDistance = 5
	}

	file, err := json.MarshalIndent(newCfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(configFilePath, file, 0644); err != nil {
		return err
	}
	cfg = newCfg
	return nil
}

func GetConfig() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
