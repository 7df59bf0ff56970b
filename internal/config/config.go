package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	ierr "github.com/flexprice/billing-notifier/internal/errors"
	"github.com/flexprice/billing-notifier/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment   DeploymentConfig   `validate:"required"`
	Server       ServerConfig       `validate:"required"`
	Logging      LoggingConfig      `validate:"required"`
	Postgres     PostgresConfig     `validate:"required"`
	PubSub       PubSubConfig       `mapstructure:"pubsub" validate:"required"`
	Kafka        KafkaConfig        `validate:"omitempty"`
	NATS         NATSConfig         `mapstructure:"nats" validate:"omitempty"`
	Notification NotificationConfig `validate:"required"`
	Payments     PaymentsConfig     `validate:"required"`
	Email        EmailConfig        `validate:"required"`
	Storage      StorageConfig      `validate:"required"`
	Document     DocumentConfig     `validate:"required"`
	Sentry       SentryConfig       `validate:"omitempty"`
	Cache        CacheConfig        `validate:"omitempty"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host" validate:"required"`
	Port                   int    `mapstructure:"port" validate:"required"`
	User                   string `mapstructure:"user" validate:"required"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname" validate:"required"`
	SSLMode                string `mapstructure:"sslmode" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" default:"30"`
}

type PubSubConfig struct {
	Type types.PubSubType `mapstructure:"type" validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string             `mapstructure:"brokers"`
	ClientID      string               `mapstructure:"client_id"`
	TLS           bool                 `mapstructure:"tls"`
	UseSASL       bool                 `mapstructure:"use_sasl"`
	SASLMechanism sarama.SASLMechanism `mapstructure:"sasl_mechanism"`
	SASLUser      string               `mapstructure:"sasl_user"`
	SASLPassword  string               `mapstructure:"sasl_password"`
}

type NATSConfig struct {
	URL    string `mapstructure:"url"`
	Stream string `mapstructure:"stream"`
}

// NotificationConfig drives the generation and dispatch pipelines
type NotificationConfig struct {
	GenerationCompletedTopic string             `mapstructure:"generation_completed_topic" validate:"required"`
	DocumentsGeneratedTopic  string             `mapstructure:"documents_generated_topic" validate:"required"`
	ConsumerGroup            string             `mapstructure:"consumer_group" validate:"required"`
	PageSize                 int                `mapstructure:"page_size" validate:"required,gt=0"`
	StepTimeout              time.Duration      `mapstructure:"step_timeout" validate:"required"`
	DocumentType             types.DocumentType `mapstructure:"document_type" validate:"required"`
	Retry                    RetryConfig        `mapstructure:"retry"`
}

// DispatchConsumerGroup is the consumer group of the email stage. It differs from
// the generation group so both stages track their own offsets.
func (c NotificationConfig) DispatchConsumerGroup() string {
	return c.ConsumerGroup + "-correos"
}

// RetryConfig controls redelivery of trigger events that fail to process
type RetryConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type PaymentsConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"required,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"required"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type EmailConfig struct {
	Provider       types.EmailProvider `mapstructure:"provider" validate:"required"`
	APIKey         string              `mapstructure:"api_key"`
	FromAddress    string              `mapstructure:"from_address" validate:"required,email"`
	FromName       string              `mapstructure:"from_name"`
	ReplyTo        string              `mapstructure:"reply_to" validate:"omitempty,email"`
	RatePerSecond  float64             `mapstructure:"rate_per_second"`
	Burst          int                 `mapstructure:"burst"`
	AttachDocument bool                `mapstructure:"attach_document"`
}

type StorageConfig struct {
	Type     types.StorageType `mapstructure:"type" validate:"required"`
	BasePath string            `mapstructure:"base_path"`
	BaseURL  string            `mapstructure:"base_url" validate:"required"`
	S3       S3Config          `mapstructure:"s3"`
	Minio    MinioConfig       `mapstructure:"minio"`
}

type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type DocumentConfig struct {
	Renderer     types.DocumentRenderer `mapstructure:"renderer" validate:"required"`
	TemplateRoot string                 `mapstructure:"template_root"`
	OfficeBinary string                 `mapstructure:"office_binary"`
	ChromePath   string                 `mapstructure:"chrome_path"`
	TypstBinary  string                 `mapstructure:"typst_binary"`
	FontDir      string                 `mapstructure:"font_dir"`
	WorkDir      string                 `mapstructure:"work_dir"`
	Timeout      time.Duration          `mapstructure:"timeout"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional, real environment variables win
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/billing-notifier")

	v.SetEnvPrefix("NOTIFIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can bind it even when the
// yaml file is absent.
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)

	v.SetDefault("pubsub.type", types.KafkaPubSub)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.client_id", "billing-notifier")
	v.SetDefault("kafka.tls", false)
	v.SetDefault("kafka.use_sasl", false)
	v.SetDefault("kafka.sasl_mechanism", "")
	v.SetDefault("kafka.sasl_user", "")
	v.SetDefault("kafka.sasl_password", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.stream", "NOTIFICATIONS")

	v.SetDefault("notification.generation_completed_topic", "generacion_cuentas_cobro_completada")
	v.SetDefault("notification.documents_generated_topic", "pdfs_cuentas_cobro_generados")
	v.SetDefault("notification.consumer_group", "billing-notifier")
	v.SetDefault("notification.page_size", 500)
	v.SetDefault("notification.step_timeout", 60*time.Second)
	v.SetDefault("notification.document_type", types.DocumentTypeInvoice)
	v.SetDefault("notification.retry.max_retries", 3)
	v.SetDefault("notification.retry.initial_interval", time.Second)
	v.SetDefault("notification.retry.max_interval", 30*time.Second)
	v.SetDefault("notification.retry.multiplier", 2.0)
	v.SetDefault("notification.retry.max_elapsed_time", 5*time.Minute)

	v.SetDefault("payments.base_url", "")
	v.SetDefault("payments.timeout", 30*time.Second)
	v.SetDefault("payments.max_retries", 2)

	v.SetDefault("email.provider", types.EmailProviderMailerSend)
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from_address", "")
	v.SetDefault("email.from_name", "")
	v.SetDefault("email.reply_to", "")
	v.SetDefault("email.rate_per_second", 5.0)
	v.SetDefault("email.burst", 1)
	v.SetDefault("email.attach_document", false)

	v.SetDefault("storage.type", types.StorageLocal)
	v.SetDefault("storage.base_path", "./storage/cuentas-cobro")
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.key_prefix", "")
	v.SetDefault("storage.minio.endpoint", "")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.bucket", "")
	v.SetDefault("storage.minio.use_ssl", false)

	v.SetDefault("document.renderer", types.DocumentRendererOffice)
	v.SetDefault("document.template_root", "./templates")
	v.SetDefault("document.office_binary", "soffice")
	v.SetDefault("document.chrome_path", "")
	v.SetDefault("document.typst_binary", "typst")
	v.SetDefault("document.font_dir", "assets/fonts")
	v.SetDefault("document.work_dir", "")
	v.SetDefault("document.timeout", 90*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "local")
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", 10*time.Minute)
}

// Validate checks the whole configuration and reports every missing or
// invalid key at once.
func (c Configuration) Validate() error {
	problems := make(map[string]string)

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		for _, fe := range validationErrs {
			problems[fe.Namespace()] = fe.Tag()
		}
	}

	for key, err := range c.checkEnums() {
		problems[key] = err
	}
	for key, err := range c.checkBackends() {
		problems[key] = err
	}

	if len(problems) == 0 {
		return nil
	}

	keys := make([]string, 0, len(problems))
	for k := range problems {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make(map[string]any, len(problems))
	for _, k := range keys {
		details[k] = problems[k]
	}

	return ierr.NewErrorf("invalid configuration: %s", strings.Join(keys, ", ")).
		WithHintf("Missing or invalid configuration keys: %s", strings.Join(keys, ", ")).
		WithReportableDetails(details).
		Mark(ierr.ErrValidation)
}

func (c Configuration) checkEnums() map[string]string {
	problems := make(map[string]string)
	if c.PubSub.Type != "" {
		if err := c.PubSub.Type.Validate(); err != nil {
			problems["Configuration.PubSub.Type"] = "oneof"
		}
	}
	if c.Storage.Type != "" {
		if err := c.Storage.Type.Validate(); err != nil {
			problems["Configuration.Storage.Type"] = "oneof"
		}
	}
	if c.Document.Renderer != "" {
		if err := c.Document.Renderer.Validate(); err != nil {
			problems["Configuration.Document.Renderer"] = "oneof"
		}
	}
	if c.Email.Provider != "" {
		if err := c.Email.Provider.Validate(); err != nil {
			problems["Configuration.Email.Provider"] = "oneof"
		}
	}
	return problems
}

// checkBackends enforces keys that only matter for the selected backends
func (c Configuration) checkBackends() map[string]string {
	problems := make(map[string]string)

	switch c.PubSub.Type {
	case types.KafkaPubSub:
		if len(c.Kafka.Brokers) == 0 {
			problems["Configuration.Kafka.Brokers"] = "required"
		}
	case types.NATSPubSub:
		if c.NATS.URL == "" {
			problems["Configuration.NATS.URL"] = "required"
		}
	}

	switch c.Storage.Type {
	case types.StorageLocal:
		if c.Storage.BasePath == "" {
			problems["Configuration.Storage.BasePath"] = "required"
		}
	case types.StorageS3:
		if c.Storage.S3.Bucket == "" {
			problems["Configuration.Storage.S3.Bucket"] = "required"
		}
		if c.Storage.S3.Region == "" {
			problems["Configuration.Storage.S3.Region"] = "required"
		}
	case types.StorageMinio:
		if c.Storage.Minio.Endpoint == "" {
			problems["Configuration.Storage.Minio.Endpoint"] = "required"
		}
		if c.Storage.Minio.Bucket == "" {
			problems["Configuration.Storage.Minio.Bucket"] = "required"
		}
	}

	if c.Email.Provider == types.EmailProviderResend || c.Email.Provider == types.EmailProviderMailerSend {
		if c.Email.APIKey == "" {
			problems["Configuration.Email.APIKey"] = "required"
		}
	}

	return problems
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
