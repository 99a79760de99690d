package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env-default:"local"`
	Tokens       `yaml:"tokens"`
	Verification `yaml:"verification"`
	RabbitMQ     `yaml:"rabbitmq"`
	Postgres     `yaml:"postgres"`
	Redis        `yaml:"redis"`
	SMTP         `yaml:"smtp"`
	HTTPServer   `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disabled"`
}

// Redis backs the pending-verification store. An empty address falls back
// to the in-process store, which only works for a single instance.
type Redis struct {
	Addr     string `yaml:"addr" env-default:""`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type Tokens struct {
	AccessTokenTTL    time.Duration `yaml:"access_token_ttl" env-required:"true"`
	RefreshTokenTTL   time.Duration `yaml:"refresh_token_ttl" env-required:"true"`
	AccessTokenSecret string        `yaml:"access_token_secret" env-required:"true"`
}

type Verification struct {
	CodeTTL        time.Duration `yaml:"code_ttl" env-default:"10m"`
	ResendCooldown time.Duration `yaml:"resend_cooldown" env-default:"60s"`
	MaxAttempts    int           `yaml:"max_attempts" env-default:"5"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-required:"true"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
	From     string `yaml:"from" env-default:"no-reply@localhost"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
