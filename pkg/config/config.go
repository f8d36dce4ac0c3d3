package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Engine   EngineConfig
	Feedback FeedbackConfig
	LogLevel string
}

type ServerConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type EngineConfig struct {
	LandmarkCount       int
	MaxHistory          int
	MotionWindow        int
	ConfidenceThreshold float64
	VisibilityThreshold float64
	CorrectionCooldown  time.Duration
	CorrectionHistory   int
	ExposedCorrections  int
	PhraseSeed          int64
}

type FeedbackConfig struct {
	QueueSize int
}

// DefaultEngine returns the engine tuning used when nothing is overridden.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		LandmarkCount:       33,
		MaxHistory:          60,
		MotionWindow:        10,
		ConfidenceThreshold: 0.7,
		VisibilityThreshold: 0.5,
		CorrectionCooldown:  2000 * time.Millisecond,
		CorrectionHistory:   10,
		ExposedCorrections:  5,
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: .env file not loaded: %v", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Address:      ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Engine: DefaultEngine(),
		Feedback: FeedbackConfig{
			QueueSize: 64,
		},
		LogLevel: "info",
	}

	cfg.Server.Address = envString("FORM_ADDR", cfg.Server.Address)
	cfg.Server.ReadTimeout = envDuration("FORM_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = envDuration("FORM_WRITE_TIMEOUT", cfg.Server.WriteTimeout)

	cfg.Engine.ConfidenceThreshold = envFloat("FORM_CONFIDENCE_THRESHOLD", cfg.Engine.ConfidenceThreshold)
	cfg.Engine.VisibilityThreshold = envFloat("FORM_VISIBILITY_THRESHOLD", cfg.Engine.VisibilityThreshold)
	cfg.Engine.MaxHistory = envInt("FORM_MAX_HISTORY", cfg.Engine.MaxHistory)
	cfg.Engine.MotionWindow = envInt("FORM_MOTION_WINDOW", cfg.Engine.MotionWindow)
	cfg.Engine.CorrectionCooldown = envDuration("FORM_CORRECTION_COOLDOWN", cfg.Engine.CorrectionCooldown)
	cfg.Engine.PhraseSeed = int64(envInt("FORM_PHRASE_SEED", int(cfg.Engine.PhraseSeed)))

	cfg.Feedback.QueueSize = envInt("FORM_FEEDBACK_QUEUE", cfg.Feedback.QueueSize)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return d
}
