package logger

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DEBUG_LEVEL = int(zapcore.DebugLevel)
	INFO_LEVEL  = int(zapcore.InfoLevel)
	WARN_LEVEL  = int(zapcore.WarnLevel)
	ERROR_LEVEL = int(zapcore.ErrorLevel)
)

var ErrInvalidLevel = errors.New("invalid log level")

type Configuration struct {
	Level      int
	TimeFormat string
}

func (c Configuration) Validate() error {
	if c.Level < DEBUG_LEVEL || c.Level > ERROR_LEVEL {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, c.Level)
	}
	return nil
}

// New builds a JSON zap logger on stderr. Stdout is left to command output.
func New(cfg Configuration) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeFormat)

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(zapcore.Level(cfg.Level)),
	)
	return zap.New(core, zap.AddCaller()), nil
}
