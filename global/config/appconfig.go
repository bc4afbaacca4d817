package config

import "time"

type AppConfig struct {
	NodeID int64 // snowflake node id

	HTTPAddr    string // gin listen address
	CORSOrigins []string

	MongoURI     string
	MongoDB      string
	MongoMaxPool int

	PostgresURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PresenceTTL   time.Duration

	NatsServers string // comma separated; empty disables the relay
	NatsName    string

	JWTSecret []byte
	JWTAlg    string

	SendQueueSize int // per-connection outbound queue
}
