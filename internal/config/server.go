package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	WalletBaseURL     string `env:"WALLET_BASE_URL" envDefault:"http://wallet:8081"`
	UserBaseURL       string `env:"USER_BASE_URL" envDefault:"http://users:8082"`
	NotifyBaseURL     string `env:"NOTIFY_BASE_URL" envDefault:"http://notify:8083"`
	TournamentBaseURL string `env:"TOURNAMENT_BASE_URL" envDefault:"http://tournaments:8084"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
