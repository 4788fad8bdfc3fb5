package config

import (
	"os"
	"runtime"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"warn"`

	Interpreter   string        `yaml:"interpreter" env:"GRADER_INTERPRETER" env-default:"python3"`
	Timeout       time.Duration `yaml:"timeout" env:"GRADER_TIMEOUT" env-default:"5s"`
	MaxOutputSize int64         `yaml:"max_output_size" env:"GRADER_MAX_OUTPUT_SIZE" env-default:"8388608"`
	KillDelay     time.Duration `yaml:"kill_delay" env:"GRADER_KILL_DELAY" env-default:"500ms"`
	// JSON file with "run" and "env", replaces the interpreter command line
	LanguageFile string `yaml:"language_file" env:"GRADER_LANGUAGE_FILE"`

	LongLineWords    int      `yaml:"long_line_words" env:"GRADER_LONG_LINE_WORDS" env-default:"100"`
	BannedConstructs []string `yaml:"banned_constructs" env:"GRADER_BANNED" env-separator:"," env-default:"break,continue,while-true"`

	MinIOHost     string `yaml:"minio_host" env:"MINIO_HOST" env-default:"127.0.0.1:9000"`
	MinIOLogin    string `yaml:"minio_login" env:"MINIO_LOGIN"`
	MinIOPassword string `yaml:"minio_password" env:"MINIO_PASSWORD"`
	MinIOBucket   string `yaml:"minio_bucket" env:"MINIO_BUCKET" env-default:"submissions"`
	MinIOSecure   bool   `yaml:"minio_secure" env:"MINIO_SECURE" env-default:"false"`

	RabbitMQHost     string `yaml:"rabbit_host" env:"RABBIT_HOST" env-default:"127.0.0.1"`
	RabbitMQPort     int    `yaml:"rabbit_port" env:"RABBIT_PORT" env-default:"5672"`
	RabbitMQUser     string `yaml:"rabbit_user" env:"RABBIT_USER"`
	RabbitMQPassword string `yaml:"rabbit_password" env:"RABBIT_PASSWORD"`
	WorkersCount     int    `yaml:"workers_count" env:"WORKERS_COUNT" env-default:"0"`
}

// NewConfig reads path (yaml, json, toml or .env) when it exists and
// environment variables otherwise. Environment always wins over the file.
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, Wrap("config", err)
	}
	if cfg.WorkersCount <= 0 {
		cfg.WorkersCount = runtime.NumCPU()
	}
	if cfg.Timeout <= 0 {
		return nil, Errorf("timeout", "must be positive, got %s", cfg.Timeout)
	}

	return cfg, nil
}

func (c *Config) MinIOEnabled() bool {
	return c.MinIOLogin != "" && c.MinIOPassword != ""
}
