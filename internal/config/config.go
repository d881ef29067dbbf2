// Package config loads service settings from the environment and an
// optional dotenv/config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Event bus implementations.
const (
	BusSQS      = "sqs"
	BusKafka    = "kafka"
	BusRabbitMQ = "rabbitmq"
)

// MinSecretLength is the shortest accepted HMAC secret, in bytes.
const MinSecretLength = 32

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	RunLocal bool   `mapstructure:"RUN_LOCAL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	AWSRegion           string `mapstructure:"AWS_REGION"`
	AWSEndpointOverride string `mapstructure:"AWS_ENDPOINT_OVERRIDE"`

	UsersTable       string        `mapstructure:"USERS_TABLE"`
	ProductsTable    string        `mapstructure:"PRODUCTS_TABLE"`
	OrdersTable      string        `mapstructure:"ORDERS_TABLE"`
	OrdersUserIndex  string        `mapstructure:"ORDERS_USER_INDEX"`
	ContactsTable    string        `mapstructure:"CONTACTS_TABLE"`
	IdempotencyTable string        `mapstructure:"IDEMPOTENCY_TABLE"`
	IdempotencyTTL   time.Duration `mapstructure:"IDEMPOTENCY_TTL"`

	EventBus         string `mapstructure:"EVENT_BUS"`
	OrdersQueueURL   string `mapstructure:"ORDERS_QUEUE_URL"`
	KafkaBrokers     string `mapstructure:"KAFKA_BROKERS"` // comma-separated host:port list
	KafkaTopic       string `mapstructure:"KAFKA_TOPIC"`
	KafkaGroupID     string `mapstructure:"KAFKA_GROUP_ID"`
	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	RabbitMQExchange string `mapstructure:"RABBITMQ_EXCHANGE"`
	RabbitMQQueue    string `mapstructure:"RABBITMQ_QUEUE"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTSecretFile string `mapstructure:"JWT_SECRET_FILE"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`

	MetricsNamespace string `mapstructure:"METRICS_NAMESPACE"`
}

var defaults = map[string]interface{}{
	"APP_ENV":               "development",
	"HTTP_ADDR":             ":8080",
	"RUN_LOCAL":             false,
	"LOG_LEVEL":             "info",
	"LOG_PRETTY":            false,
	"AWS_REGION":            "us-east-1",
	"AWS_ENDPOINT_OVERRIDE": "",
	"USERS_TABLE":           "quickcart-users",
	"PRODUCTS_TABLE":        "quickcart-products",
	"ORDERS_TABLE":          "quickcart-orders",
	"ORDERS_USER_INDEX":     "user_id-date-index",
	"CONTACTS_TABLE":        "quickcart-contacts",
	"IDEMPOTENCY_TABLE":     "quickcart-idempotency",
	"IDEMPOTENCY_TTL":       "48h",
	"EVENT_BUS":             BusSQS,
	"ORDERS_QUEUE_URL":      "",
	"KAFKA_BROKERS":         "",
	"KAFKA_TOPIC":           "quickcart.orders",
	"KAFKA_GROUP_ID":        "quickcart-order-worker",
	"RABBITMQ_URL":          "",
	"RABBITMQ_EXCHANGE":     "quickcart.events",
	"RABBITMQ_QUEUE":        "quickcart.orders",
	"JWT_SECRET":            "",
	"JWT_SECRET_FILE":       "",
	"JWT_ISSUER":            "",
	"METRICS_NAMESPACE":     "QuickCart",
}

// Load reads configuration from the environment, layered over configFile
// when one is given. Environment variables win over the file.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.JWTSecret == "" && cfg.JWTSecretFile != "" {
		raw, err := os.ReadFile(cfg.JWTSecretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(raw))
	}
	cfg.EventBus = strings.ToLower(strings.TrimSpace(cfg.EventBus))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateAPI adds the checks only the HTTP API needs on top of Validate.
func (c *Config) ValidateAPI() error {
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", MinSecretLength)
	}
	return nil
}

// Validate checks cross-field requirements shared by every binary.
func (c *Config) Validate() error {
	var errs []error
	for key, val := range map[string]string{
		"USERS_TABLE":       c.UsersTable,
		"PRODUCTS_TABLE":    c.ProductsTable,
		"ORDERS_TABLE":      c.OrdersTable,
		"ORDERS_USER_INDEX": c.OrdersUserIndex,
		"CONTACTS_TABLE":    c.ContactsTable,
		"IDEMPOTENCY_TABLE": c.IdempotencyTable,
	} {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	switch c.EventBus {
	case BusSQS:
		if c.OrdersQueueURL == "" {
			errs = append(errs, errors.New("ORDERS_QUEUE_URL is required for the sqs bus"))
		}
	case BusKafka:
		if len(c.Brokers()) == 0 || c.KafkaTopic == "" {
			errs = append(errs, errors.New("KAFKA_BROKERS and KAFKA_TOPIC are required for the kafka bus"))
		}
	case BusRabbitMQ:
		if c.RabbitMQURL == "" || c.RabbitMQExchange == "" || c.RabbitMQQueue == "" {
			errs = append(errs, errors.New("RABBITMQ_URL, RABBITMQ_EXCHANGE and RABBITMQ_QUEUE are required for the rabbitmq bus"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EVENT_BUS %q", c.EventBus))
	}
	return errors.Join(errs...)
}

// Brokers splits KafkaBrokers into addresses.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}
