package configs

import (
	"flag"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sonofthenation/arcanum/configs/loader"
)

type TelegramConfig struct {
	Token             string        `validate:"required"`
	BotUsername       string        `validate:"required"`
	AdminID           int64         `validate:"required"`
	ConnectionTimeout time.Duration `validate:"required"`
}

type PostgresConfig struct {
	URL string `validate:"required"`
}

type RedisConfig struct {
	Host         string
	DB           int
	User         string
	Password     string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type Config struct {
	TG  TelegramConfig
	PG  PostgresConfig
	RD  RedisConfig
	Env string
}

func MustLoad(l loader.ConfigLoader) *Config {
	env := flag.String("env", "dev", "Environment type")
	flag.Parse()

	const op = "configs.MustLoad"
	envs, err := l.Load()
	if err != nil {
		log.Fatalf("%s: config load failed: %+v", op, err)
	}

	cfg := &Config{
		TG: TelegramConfig{
			Token:             envs["TELEGRAM_TOKEN"],
			BotUsername:       envs["BOT_USERNAME"],
			AdminID:           getEnvAsInt64(envs["ADMIN_ID"], 0),
			ConnectionTimeout: getEnvAsDuration(envs["TELEGRAM_CONNECTION_TIMEOUT"], 5*time.Second),
		},
		PG: PostgresConfig{
			URL: envs["DATABASE_URL"],
		},
		RD: RedisConfig{
			Host:         envs["REDIS_HOST"],
			DB:           getEnvAsInt(envs["REDIS_DB"], 0),
			User:         envs["REDIS_USER"],
			Password:     envs["REDIS_PASSWORD"],
			MaxRetries:   getEnvAsInt(envs["REDIS_MAX_RETRIES"], 3),
			DialTimeout:  getEnvAsDuration(envs["REDIS_DIAL_TIMEOUT"], 5*time.Second),
			ReadTimeout:  getEnvAsDuration(envs["REDIS_READ_TIMEOUT"], 5*time.Second),
			WriteTimeout: getEnvAsDuration(envs["REDIS_WRITE_TIMEOUT"], 5*time.Second),
			CacheTTL:     getEnvAsDuration(envs["REDIS_CACHE_TTL"], 15*time.Minute),
		},
		Env: *env,
	}

	if err := validator.New().Struct(cfg); err != nil {
		log.Fatalf("%s: config validation failed: %+v", op, err)
	}

	return cfg
}

func getEnvAsDuration(strValue string, defaultValue time.Duration) time.Duration {
	const op = "configs.getEnvAsDuration"
	if strValue == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("%s: invalid value %s, using default: %v", op, strValue, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt(strValue string, defaultValue int) int {
	const op = "configs.getEnvAsInt"
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("%s: invalid value %s, using default: %v", op, strValue, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsInt64(strValue string, defaultValue int64) int64 {
	const op = "configs.getEnvAsInt64"
	if strValue == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(strValue, 10, 64)
	if err != nil {
		log.Printf("%s: invalid value %s, using default: %v", op, strValue, defaultValue)
		return defaultValue
	}
	return value
}
