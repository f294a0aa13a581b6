package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// The kiosk API, the email worker and the monthly-report job all read the same
// environment. In production the values come from the pod spec; locally an
// optional .env file is loaded first.

type Config struct {
	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBHost      string `mapstructure:"DB_HOST"`
	DBPort      string `mapstructure:"DB_PORT"`
	DBUser      string `mapstructure:"DB_USER"`
	DBPassword  string `mapstructure:"DB_PASSWORD"`
	DBName      string `mapstructure:"DB_NAME"`
	DBSSLMode   string `mapstructure:"DB_SSLMODE"`
	DBPath      string `mapstructure:"DB_PATH"`
	AutoMigrate bool   `mapstructure:"AUTO_MIGRATE"`

	ServerPort string `mapstructure:"SERVER_PORT"`
	IsLocalDev bool   `mapstructure:"IS_LOCAL_DEV"`

	AWSRegion        string `mapstructure:"AWS_REGION"`
	AWSEndpoint      string `mapstructure:"AWS_ENDPOINT"`
	EmailSQSQueueURL string `mapstructure:"EMAIL_SQS_QUEUE_URL"`
	MailSender       string `mapstructure:"MAIL_SENDER"`
	ManagerEmail     string `mapstructure:"MANAGER_EMAIL"`

	OvertimeMonthlyThreshold float64 `mapstructure:"OVERTIME_MONTHLY_THRESHOLD"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes int    `mapstructure:"JWT_TTL_MINUTES"`

	TraceExporter string `mapstructure:"TRACE_EXPORTER"`
	OTLPEndpoint  string `mapstructure:"OTLP_ENDPOINT"`

	NotifyWorkers   int `mapstructure:"NOTIFY_WORKERS"`
	NotifyQueueSize int `mapstructure:"NOTIFY_QUEUE_SIZE"`
}

// LoadConfig reads configuration from an optional .env file and environment variables.
func LoadConfig() (config Config, err error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.SetDefault("DB_DRIVER", "pgx")
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "workclock")
	viper.SetDefault("DB_PASSWORD", "workclock_password")
	viper.SetDefault("DB_NAME", "workclock")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "workclock.db")
	viper.SetDefault("AUTO_MIGRATE", true)
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("IS_LOCAL_DEV", false)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("EMAIL_SQS_QUEUE_URL", "http://localstack:4566/000000000000/email-queue")
	viper.SetDefault("MAIL_SENDER", "noreply@workclock.com")
	viper.SetDefault("MANAGER_EMAIL", "manager@workclock.com")
	viper.SetDefault("OVERTIME_MONTHLY_THRESHOLD", 160)
	viper.SetDefault("JWT_SECRET", "dev-secret-key-change-in-production")
	viper.SetDefault("JWT_TTL_MINUTES", 480)
	viper.SetDefault("TRACE_EXPORTER", "otlp")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("NOTIFY_WORKERS", 4)
	viper.SetDefault("NOTIFY_QUEUE_SIZE", 100)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
