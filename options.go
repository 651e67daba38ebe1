package topomesh

import "go.uber.org/zap"

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	username string
	password string
	db       int

	keyPrefix        string
	defaultPrecision float64

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithUsername sets the database username (ACL auth).
func WithUsername(username string) Option {
	return func(c *clientConfig) {
		c.username = username
	}
}

// WithDB selects a Redis logical database.
func WithDB(db int) Option {
	return func(c *clientConfig) {
		c.db = db
	}
}

// WithKeyPrefix sets the storage key prefix. Default: "topo:".
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithDefaultPrecision sets the precision given to topologies created
// without one. Zero means the tolerance is derived per geometry.
func WithDefaultPrecision(precision float64) Option {
	return func(c *clientConfig) {
		c.defaultPrecision = precision
	}
}

// WithLogger sets the logger used by the mesh engine.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
