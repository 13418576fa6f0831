package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	GroqAPIKey   string        `env:"GROQ_API_KEY,required,notEmpty"`
	GroqURL      string        `env:"GROQ_URL"`
	GroqModel    string        `env:"GROQ_MODEL" envDefault:"whisper-large-v3-turbo"`
	GroqLanguage string        `env:"GROQ_LANGUAGE" envDefault:"tr"`
	GroqTimeout  time.Duration `env:"GROQ_TIMEOUT" envDefault:"5m"`

	UploadDir       string        `env:"UPLOAD_DIR" envDefault:"./uploads"`
	UploadRetention time.Duration `env:"UPLOAD_RETENTION" envDefault:"1h"`
	MaxUploadMB     int           `env:"MAX_UPLOAD_MB" envDefault:"200"`
	SegmentSizeMB   float64       `env:"SEGMENT_SIZE_MB" envDefault:"23"`

	QuotaWindow   time.Duration `env:"QUOTA_WINDOW" envDefault:"1h"`
	QuotaCapacity int           `env:"QUOTA_CAPACITY_SECONDS" envDefault:"7200"`

	FontPath string `env:"PDF_FONT_PATH"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5m"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15m"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AllowedOrigins string `env:"ALLOWED_ORIGINS" envDefault:"*"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from a .env file and environment variables.
// Environment variables win over the .env file; struct defaults fill the
// rest. The read and write timeouts are generous because a large upload
// plus a multi-segment transcription legitimately takes minutes.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
