package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Host string `yaml:"host" env:"SERVER_HOST"`
	Port string `yaml:"port" env:"SERVER_PORT"`
}

type Postgres struct {
	Username    string `yaml:"username" env:"POSTGRES_USERNAME"`
	Password    string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Host        string `yaml:"host" env:"POSTGRES_HOST"`
	Database    string `yaml:"database" env:"POSTGRES_DATABASE"`
	QueriesPath string `yaml:"queries_path" env:"POSTGRES_QUERIES_PATH"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	Database int    `yaml:"database" env:"REDIS_DATABASE"`
}

type Ecomplus struct {
	BaseURL   string `yaml:"base_url" env:"ECOMPLUS_BASE_URL"`
	AppID     string `yaml:"app_id" env:"ECOMPLUS_APP_ID"`
	AppSecret string `yaml:"app_secret" env:"ECOMPLUS_APP_SECRET"`
}

type PagHiper struct {
	BaseURL string `yaml:"base_url" env:"PAGHIPER_BASE_URL"`
}

type Monitoring struct {
	StatusURL string `yaml:"status_url" env:"MONITORING_STATUS_URL"`
}

type Logger struct {
	Env   string `yaml:"env" env:"LOGGER_ENV"`
	Level string `yaml:"level" env:"LOGGER_LEVEL"`
}

type Config struct {
	Mocked     bool       `yaml:"mocked" env:"MOCKED"`
	Server     Server     `yaml:"server"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
	Ecomplus   Ecomplus   `yaml:"ecomplus"`
	PagHiper   PagHiper   `yaml:"paghiper"`
	Monitoring Monitoring `yaml:"monitoring"`
	Logger     Logger     `yaml:"logger"`
}

var (
	loadedConfig *Config
	configMutex  sync.RWMutex
)

// resolves the config path from the command line or environment
func GetConfigPath() (string, error) {
	if len(os.Args) >= 2 {
		return os.Args[1], nil
	}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path, nil
	}

	return "", fmt.Errorf("config path must be given as the first argument or with CONFIG_PATH")
}

// loads YAML config from a file, then applies environment overrides
func LoadConfig(configPath string) error {
	bytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %v", configPath, err)
	}

	var config Config
	err = yaml.Unmarshal(bytes, &config)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %v", configPath, err)
	}

	// environment variables win over the file, secrets are usually set this way
	err = env.Parse(&config)
	if err != nil {
		return fmt.Errorf("failed to parse config from env: %v", err)
	}

	configMutex.Lock()
	defer configMutex.Unlock()
	loadedConfig = &config

	return nil
}

func GetConfig() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if loadedConfig == nil {
		return nil, fmt.Errorf("config has not been loaded")
	}

	return loadedConfig, nil
}
