// Package env holds the environment variable names shared by the commands
package env

const (
	// Prefix is the prefix of every fxpoints environment variable
	Prefix = "FXPOINTS"

	// DBURLSuffix is the suffix of the Postgres connection URL variable
	DBURLSuffix = "_DB_URL"

	// RedisURLSuffix is the suffix of the Redis connection URL variable
	RedisURLSuffix = "_REDIS_URL"
)
