package logger

import (
	"io"

	"github.com/spf13/viper"
)

// EnvConfig holds logger settings read from the environment. The logger is
// built before the main configuration is loaded, so it reads its own keys.
type EnvConfig struct {
	Level       string
	Format      string
	Output      io.Writer // overrides every other destination when set
	ServiceName string

	Environment string // local, dev, prod

	LogFile     string
	LogFileOnly bool

	MaxSize    int // MB
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// LoadFromEnv reads LOG_*, SERVICE_NAME and APP_ENV.
func LoadFromEnv() *EnvConfig {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SERVICE_NAME", "joboffers")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("LOG_FILE", "/var/log/joboffers/app.log")
	v.SetDefault("LOG_FILE_ONLY", false)
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 7)
	v.SetDefault("LOG_MAX_AGE", 30)
	v.SetDefault("LOG_COMPRESS", true)

	return &EnvConfig{
		Level:       v.GetString("LOG_LEVEL"),
		Format:      v.GetString("LOG_FORMAT"),
		ServiceName: v.GetString("SERVICE_NAME"),
		Environment: v.GetString("APP_ENV"),
		LogFile:     v.GetString("LOG_FILE"),
		LogFileOnly: v.GetBool("LOG_FILE_ONLY"),
		MaxSize:     v.GetInt("LOG_MAX_SIZE"),
		MaxBackups:  v.GetInt("LOG_MAX_BACKUPS"),
		MaxAge:      v.GetInt("LOG_MAX_AGE"),
		Compress:    v.GetBool("LOG_COMPRESS"),
	}
}
