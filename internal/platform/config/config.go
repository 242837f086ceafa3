package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so
// main stays lean.
type Config struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	JWTSigningKey string
	Xbox          Xbox
}

// Xbox holds the identifiers for the Microsoft/Xbox bind flow. The
// defaults match the Minecraft Java launcher title; overriding them is
// only useful against mock authorities.
type Xbox struct {
	TitleID      string
	RelyingParty string
	Scope        string
	// AlivePeriod bounds how long a bind session may poll for the user
	// to approve the device code.
	AlivePeriod time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("CRAFTGATE_ADDR", ":8080"),
		PostgresURL:   os.Getenv("CRAFTGATE_POSTGRES_URL"),
		RedisURL:      os.Getenv("CRAFTGATE_REDIS_URL"),
		AuditTopic:    getenv("CRAFTGATE_AUDIT_TOPIC", "craftgate.audit"),
		JWTSigningKey: os.Getenv("CRAFTGATE_JWT_SIGNING_KEY"),
		Xbox: Xbox{
			TitleID:      getenv("CRAFTGATE_XBOX_TITLE_ID", "00000000402b5328"),
			RelyingParty: getenv("CRAFTGATE_XBOX_RELYING_PARTY", "rp://api.minecraftservices.com/"),
			Scope:        getenv("CRAFTGATE_XBOX_SCOPE", "service::user.auth.xboxlive.com::MBI_SSL"),
			AlivePeriod:  alivePeriodFromEnv(),
		},
	}
	if brokers := os.Getenv("CRAFTGATE_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// DevSigningKey is the JWT key main falls back to, with a warning, when
// CRAFTGATE_JWT_SIGNING_KEY is unset. Never deploy it.
const DevSigningKey = "dev-secret-key-change-in-production"

func alivePeriodFromEnv() time.Duration {
	raw := os.Getenv("CRAFTGATE_BIND_ALIVE_SECONDS")
	if raw == "" {
		return 0 // session applies its own default
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
