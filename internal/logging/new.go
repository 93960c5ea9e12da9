package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the server logger.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	File   string // empty means stderr
}

// rotation limits for Options.File
const (
	maxFileSizeMB = 10
	maxBackups    = 3
	maxAgeDays    = 28
)

// New builds a zap-backed Logger. The returned close func flushes the
// logger and closes the log file, if any.
func New(opts Options) (*ZapLogger, func() error, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch opts.Format {
	case "", "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	var out io.Writer = os.Stderr
	var file *lumberjack.Logger
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxFileSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		}
		out = file
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(out), level)
	l := NewZapLogger(zap.New(core))

	closeFn := func() error {
		_ = l.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return l, closeFn, nil
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.DiscardHandler))
}
