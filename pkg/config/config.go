package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port     string `mapstructure:"port"`
	GRPCPort string `mapstructure:"grpc_port"`

	// Store mongo | postgres | memory
	Store      string         `mapstructure:"store"`
	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`

	// PubSub redis | local
	PubSub string      `mapstructure:"pubsub"`
	Redis  RedisConfig `mapstructure:"redis"`

	Catalog CatalogConfig `mapstructure:"catalog"`
	Events  EventsConfig  `mapstructure:"events"`

	JWTSecret    string        `mapstructure:"jwt_secret"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
	Timezone     string        `mapstructure:"timezone"`
}

// CatalogConfig job / gig catalog read model
type CatalogConfig struct {
	// Driver postgres | memory
	Driver   string        `mapstructure:"driver"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// EventsConfig booking events and inbound application updates
type EventsConfig struct {
	// Driver kafka | rabbitmq | none
	Driver        string        `mapstructure:"driver"`
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	AMQPURL       string        `mapstructure:"amqp_url"`
	Exchange      string        `mapstructure:"exchange"`
	RoutingKey    string        `mapstructure:"routing_key"`
	ApplicationQ  string        `mapstructure:"application_queue"`
	RetryCount    int           `mapstructure:"retry_count"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
	// Addr standalone redis, sentinel from .env is used when empty
	Addr string `mapstructure:"addr"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`

	// Options raw query string, e.g. replicaSet=rs0&authSource=admin
	Options string `mapstructure:"options"`
}

// ApplyDefaults fill zero values
func (c *Chat) ApplyDefaults() {
	if c.Store == "" {
		c.Store = "mongo"
	}
	if c.PubSub == "" {
		c.PubSub = "redis"
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = "memory"
	}
	if c.Catalog.CacheTTL <= 0 {
		c.Catalog.CacheTTL = 5 * time.Minute
	}
	if c.Events.Driver == "" {
		c.Events.Driver = "none"
	}
	if c.Events.RetryCount <= 0 {
		c.Events.RetryCount = 3
	}
	if c.Events.RetryInterval <= 0 {
		c.Events.RetryInterval = 2 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
}
