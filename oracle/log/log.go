package log

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	customLog *zap.SugaredLogger = zap.NewNop().Sugar()
	level                        = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// InitLogger sets up a console logger on stdout. Errors go to stderr.
func InitLogger() {
	customLog = newLogger(zapcore.Lock(os.Stdout), zapcore.Lock(os.Stderr), false)
}

// ResetLogger duplicates all output into <home>/logs/<binary>.<pid>.log.
func ResetLogger(home string) {
	if home == "" {
		osHome, err := os.UserHomeDir()
		if err != nil {
			Fatalf("Failed to get user home directory: %v", err)
		}
		home = filepath.Join(osHome, ".pricepush")
	}

	dir := filepath.Join(home, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		Fatalf("Failed to create log directory %s: %v", dir, err)
	}

	name := fmt.Sprintf("%s.%d.log", filepath.Base(os.Args[0]), os.Getpid())
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		Fatalf("Failed to create log file: %v", err)
	}

	Infof("From now on, all logs are also written to %s", path)

	out := zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stdout), zapcore.AddSync(file))
	errOut := zapcore.NewMultiWriteSyncer(zapcore.Lock(os.Stderr), zapcore.AddSync(file))
	customLog = newLogger(out, errOut, true)
}

// SetLevel accepts debug, info, warn or error.
func SetLevel(name string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.SetLevel(lvl)
	return nil
}

func newLogger(out, errOut zapcore.WriteSyncer, withCaller bool) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	encoder := zapcore.NewConsoleEncoder(encCfg)
	below := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.ErrorLevel
	})
	above := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.ErrorLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, out, below),
		zapcore.NewCore(encoder, errOut, above),
	)

	opts := []zap.Option{zap.AddCallerSkip(1)}
	if withCaller {
		opts = append(opts, zap.AddCaller())
	}

	return zap.New(core, opts...).Sugar()
}

// Sync flushes buffered entries. Call before exit.
func Sync() {
	_ = customLog.Sync()
}

func Debugf(format string, v ...any) {
	customLog.Debugf(format, v...)
}

func Infof(format string, v ...any) {
	customLog.Infof(format, v...)
}

func Warnf(format string, v ...any) {
	customLog.Warnf(format, v...)
}

func Errorf(format string, v ...any) {
	customLog.Errorf(format, v...)
}

func Fatalf(format string, v ...any) {
	customLog.Fatalf(format, v...)
}
