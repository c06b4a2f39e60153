package config

import (
	"errors"
	"flag"
	"io/fs"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Host        string        `env:"QS_HOST" env-default:"0.0.0.0"`
	Port        uint          `env:"QS_PORT" env-default:"80"`
	DBUrl       string        `env:"QS_DB_URL" env-default:"surveys.sqlite"`
	TokenSecret string        `env:"QS_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"QS_TOKEN_TTL" env-default:"15m"`
	Debug       bool          `env:"QS_DEBUG" env-default:"false"`
	LogFile     string        `env:"QS_LOG_FILE"`

	// login attempts allowed per minute and per client IP
	LoginRate  int `env:"QS_LOGIN_RATE" env-default:"10"`
	LoginBurst int `env:"QS_LOGIN_BURST" env-default:"5"`
}

// Load reads .env (when present), then QS_* environment variables,
// then command line flags, each layer overriding the previous one.
func Load(args []string) (cfg Config, err error) {
	err = godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return
	}

	err = cleanenv.ReadEnv(&cfg)
	if err != nil {
		return
	}

	flags := flag.NewFlagSet("survey-desk", flag.ContinueOnError)
	flags.StringVar(&cfg.Host, "host", cfg.Host, "listen host name")
	flags.UintVar(&cfg.Port, "port", cfg.Port, "listen port number")
	flags.StringVar(&cfg.DBUrl, "db-url", cfg.DBUrl, "path to SQLite3 DB file")
	flags.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "secret key for token encryption and decryption")
	flags.DurationVar(&cfg.TokenTTL, "token-ttl", cfg.TokenTTL, "access token TTL")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "log at DEBUG level")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also write logs to this file, rotated by size")
	flags.IntVar(&cfg.LoginRate, "login-rate", cfg.LoginRate, "login attempts per minute per client")
	flags.IntVar(&cfg.LoginBurst, "login-burst", cfg.LoginBurst, "login attempts allowed in a burst")
	err = flags.Parse(args)
	if err != nil {
		return
	}

	switch {
	case cfg.TokenSecret == "":
		err = errors.New("missing parameter -token-secret")
	case cfg.TokenTTL <= 0:
		err = errors.New("-token-ttl must be positive")
	case cfg.LoginRate <= 0 || cfg.LoginBurst <= 0:
		err = errors.New("-login-rate and -login-burst must be positive")
	}
	return
}

func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr()
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
