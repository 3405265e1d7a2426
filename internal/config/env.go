package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type EnvVars struct {
	AppEnv       string        `envconfig:"APP_ENV" default:"dev"`
	Port         int           `envconfig:"PORT" default:"8000"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"5s"`

	BusBuffer int `envconfig:"BUS_BUFFER" default:"16"`

	LLMApiKey  string        `envconfig:"LLM_API_KEY" required:"true"`
	LLMBaseURL string        `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel   string        `envconfig:"LLM_MODEL" default:"moonshotai/kimi-k2-instruct"`
	LLMTimeout time.Duration `envconfig:"LLM_TIMEOUT" default:"60s"`

	MaxGenerateAttempts int           `envconfig:"MAX_GENERATE_ATTEMPTS" default:"3"`
	MaxRectifyAttempts  int           `envconfig:"MAX_RECTIFY_ATTEMPTS" default:"3"`
	ExecTimeout         time.Duration `envconfig:"EXEC_TIMEOUT" default:"30s"`
	HistorySize         int           `envconfig:"HISTORY_SIZE" default:"128"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func LoadEnv() (*EnvVars, error) {
	var v EnvVars
	if err := envconfig.Process("", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
