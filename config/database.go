package config

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoConfig struct {
	URI             string        `koanf:"uri"`
	DatabaseName    string        `koanf:"db"`
	Users           string        `koanf:"users"`
	Bookmarks       string        `koanf:"bookmarks"`
	Notes           string        `koanf:"notes"`
	Collections     string        `koanf:"collections"`
	MaxPoolSize     uint64        `koanf:"max_pool_size"`
	MinPoolSize     uint64        `koanf:"min_pool_size"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	Timeout         time.Duration `koanf:"timeout"`
	RetryWrites     bool          `koanf:"retry_writes"`
}

// ClientOptions builds the driver options for the configured pool.
func (c MongoConfig) ClientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize).
		SetMaxConnIdleTime(c.MaxConnIdleTime).
		SetServerSelectionTimeout(c.Timeout).
		SetRetryWrites(c.RetryWrites)
}
