package redis

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	redistrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/redis/go-redis.v9"
)

type Config struct {
	Enabled        bool
	Address        string
	Username       string
	Password       string
	DB             int
	Namespace      string
	Debug          bool
	MaxRetries     int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PoolSize       int
	TracingEnabled bool
}

func ReadConfig() *Config {
	return &Config{
		Enabled:        viper.GetBool("redis.enabled"),
		Address:        viper.GetString("redis.address"),
		Username:       viper.GetString("redis.username"),
		Password:       viper.GetString("redis.password"),
		DB:             viper.GetInt("redis.db"),
		Namespace:      viper.GetString("redis.namespace"),
		Debug:          viper.GetBool("redis.debug"),
		MaxRetries:     viper.GetInt("redis.max_retries"),
		DialTimeout:    viper.GetDuration("redis.dial_timeout"),
		ReadTimeout:    viper.GetDuration("redis.read_timeout"),
		WriteTimeout:   viper.GetDuration("redis.write_timeout"),
		PoolSize:       viper.GetInt("redis.pool_size"),
		TracingEnabled: viper.GetBool("tracing.enabled"),
	}
}

func New(config *Config, opts ...Option) (*redis.Client, error) {
	o := &Opt{
		Options: &redis.Options{
			Addr: config.Address,
		},
	}
	if len(config.Username) > 0 {
		o.Username = config.Username
	}
	if len(config.Password) > 0 {
		o.Password = config.Password
	}
	if config.DB > 0 {
		o.DB = config.DB
	}
	if config.MaxRetries != 0 {
		o.MaxRetries = config.MaxRetries
	}
	if config.DialTimeout != 0 {
		o.DialTimeout = config.DialTimeout
	}
	if config.ReadTimeout != 0 {
		o.ReadTimeout = config.ReadTimeout
	}
	if config.WriteTimeout != 0 {
		o.WriteTimeout = config.WriteTimeout
	}
	if config.PoolSize != 0 {
		o.PoolSize = config.PoolSize
	}

	for _, o0 := range opts {
		o0.Apply(o)
	}

	client := redis.NewClient(o.Options)
	client.AddHook(&nsHook{config.Namespace})
	client.AddHook(&debugHook{config.Debug})

	if config.TracingEnabled {
		redistrace.WrapClient(client, redistrace.WithServiceName("redis"))
	}
	return client, client.Ping(context.Background()).Err()
}

type Opt struct {
	*redis.Options
}

type Option interface {
	Apply(o *Opt)
}

type OptionFunc func(*Opt)

func (f OptionFunc) Apply(o *Opt) {
	f(o)
}

// Limiter interface used to implemented circuit breaker or rate limiter.
func Limiter(limiter redis.Limiter) Option {
	return OptionFunc(func(o *Opt) {
		o.Limiter = limiter
	})
}
