package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"4311"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type StorageEnv struct {
	Type     string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir  string `envconfig:"STORAGE_BASE_DIR" default:"data"`
	Document string `envconfig:"STORAGE_DOCUMENT" default:"tasks.json"`
	// Watch reports edits made to a local document by other writers.
	Watch bool `envconfig:"WATCH_DOCUMENT" default:"true"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"missioncontrol/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type BackendEnv struct {
	Type         string `envconfig:"BACKEND" default:"openclaw"`
	OpenClawPath string `envconfig:"OPENCLAW_PATH" default:"openclaw"`
	RosterFile   string `envconfig:"ROSTER_FILE"`
	// WorkDir is the working directory of in-process Claude agents.
	WorkDir string `envconfig:"WORK_DIR" default:"."`

	TaskTimeout   time.Duration `envconfig:"TASK_TIMEOUT" default:"5m"`
	ReplyTimeout  time.Duration `envconfig:"REPLY_TIMEOUT" default:"2m"`
	LookupTimeout time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"30s"`
}

type Env struct {
	BaseEnv
	StorageEnv
	BackendEnv
}

const namespace = "MISSIONCONTROL"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, fmt.Errorf("invalid env: %w", err)
	}
	return &env, nil
}

func (e *Env) validate() error {
	switch e.StorageEnv.Type {
	case "local", "memory":
	case "s3":
		if e.S3Bucket == "" {
			return fmt.Errorf("%s_S3_BUCKET is required for s3 storage", namespace)
		}
	default:
		return fmt.Errorf("unknown storage type %q", e.StorageEnv.Type)
	}
	switch e.BackendEnv.Type {
	case "openclaw", "claude":
	default:
		return fmt.Errorf("unknown backend %q", e.BackendEnv.Type)
	}
	for name, d := range map[string]time.Duration{
		"TASK_TIMEOUT":   e.TaskTimeout,
		"REPLY_TIMEOUT":  e.ReplyTimeout,
		"LOOKUP_TIMEOUT": e.LookupTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s_%s must be positive", namespace, name)
		}
	}
	return nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
