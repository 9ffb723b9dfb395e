package config

import (
	"fmt"
	"os"
	"time"

	"github.com/doubtroom/flashcard-srs/pkg/validator"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP HTTPConfig `mapstructure:"http" validate:"required"`
	DB   DBConfig   `mapstructure:"db" validate:"required"`
	Env  string     `mapstructure:"env" validate:"oneof=development production staging"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

type DBConfig struct {
	Host          string `mapstructure:"host" validate:"required"`
	Port          string `mapstructure:"port" validate:"required"`
	User          string `mapstructure:"user" validate:"required"`
	Password      string `mapstructure:"password" validate:"required"`
	Name          string `mapstructure:"name" validate:"required"`
	SSL           string `mapstructure:"ssl" validate:"oneof=disable require verify-full"`
	MaxOpenConns  int    `mapstructure:"max_open_conns" validate:"min=1,max=1000"`
	MaxIdleConns  int    `mapstructure:"max_idle_conns" validate:"min=0,max=100"`
	MigrationsDir string `mapstructure:"migrations_dir" validate:"required"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSL)
}

func Init() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	configName := os.Getenv("CONFIG_NAME")
	if configName == "" {
		configName = "default"
	}

	v.AddConfigPath("configs")
	v.SetConfigName(configName)

	binds := map[string]string{
		"env":         "APP_ENV",
		"http.addr":   "HTTP_ADDR",
		"db.host":     "DB_HOST",
		"db.port":     "DB_PORT",
		"db.user":     "DB_USER",
		"db.password": "DB_PASSWORD",
		"db.name":     "DB_NAME",
		"db.ssl":      "DB_SSL",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Config{}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
