package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	// VAPID key pair identifying this server to the push services.
	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY,required=true"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY,required=true"`
	PushSubject     string `env:"PUSH_SUBJECT,required=true"` // mailto: or https: contact

	// AppBaseURL is the public site the notification URLs point back to.
	AppBaseURL string `env:"APP_BASE_URL,required=true"`

	RateLimitPerSec      int    `env:"RATE_LIMIT_PER_SEC,default=50"`
	WorkerConcurrency    int    `env:"WORKER_CONCURRENCY,default=4"`
	SweepIntervalSeconds int    `env:"SWEEP_INTERVAL_SECONDS,default=30"`
	APIPort              int    `env:"API_PORT,default=8080"`
	LogLevel             string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
