package queue

// Storage backends selectable through Config.Backend.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config selects where queued batches live.
type Config struct {
	Backend        string `env:"NOTIFICATION_QUEUE_BACKEND" envDefault:"postgres"`
	RedisKeyPrefix string `env:"NOTIFICATION_QUEUE_REDIS_PREFIX" envDefault:"notification:batches"`
}
