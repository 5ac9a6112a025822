package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It starts as a no-op so code under test
// can log freely; main swaps in the real logger via Init.
var Log = zap.NewNop()

// Init builds the global logger. debug selects the development encoder.
func Init(debug bool) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build(zap.AddCallerSkip(0))
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	Log = l
}

// Sync flushes buffered entries. Safe to call on shutdown even if Init failed.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
