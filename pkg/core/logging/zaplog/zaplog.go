/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package zaplog is the default logger provider. Every module gets a named
// zap logger whose level enabler consults the shared module level registry,
// so SetLevel takes effect on loggers that already exist.
package zaplog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/api"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/metadata"
)

var moduleLevels = &metadata.ModuleLevels{}

// SetLevel sets the log level of module
func SetLevel(module string, level api.Level) {
	moduleLevels.SetLevel(module, level)
}

// GetLevel returns the log level of module
func GetLevel(module string) api.Level {
	return moduleLevels.GetLevel(module)
}

// IsEnabledFor returns true if level is enabled for module
func IsEnabledFor(module string, level api.Level) bool {
	return moduleLevels.IsEnabledFor(module, level)
}

// Provider creates zap backed module loggers
type Provider struct {
	writer  zapcore.WriteSyncer
	encoder func() zapcore.Encoder
}

// Option configures the Provider
type Option func(*Provider)

// WithWriter directs log output to w
func WithWriter(w io.Writer) Option {
	return func(p *Provider) {
		p.writer = zapcore.AddSync(w)
	}
}

// WithJSONEncoding emits JSON entries instead of console text
func WithJSONEncoding() Option {
	return func(p *Provider) {
		p.encoder = func() zapcore.Encoder {
			return zapcore.NewJSONEncoder(encoderConfig())
		}
	}
}

// NewProvider returns a Provider writing console entries to stderr
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		writer: zapcore.Lock(os.Stderr),
		encoder: func() zapcore.Encoder {
			return zapcore.NewConsoleEncoder(encoderConfig())
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetLogger returns the logger for module
func (p *Provider) GetLogger(module string) api.Logger {
	enabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return moduleLevels.IsEnabledFor(module, fromZapLevel(l))
	})
	core := zapcore.NewCore(p.encoder(), p.writer, enabler)
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel))

	return &Logger{s: zl.Named(module).Sugar()}
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	return cfg
}

func fromZapLevel(l zapcore.Level) api.Level {
	switch {
	case l >= zapcore.DPanicLevel:
		return api.CRITICAL
	case l == zapcore.ErrorLevel:
		return api.ERROR
	case l == zapcore.WarnLevel:
		return api.WARNING
	case l == zapcore.InfoLevel:
		return api.INFO
	default:
		return api.DEBUG
	}
}

// Logger adapts a zap.SugaredLogger to api.Logger. Methods without a format
// suffix separate their arguments with spaces.
type Logger struct {
	s *zap.SugaredLogger
}

func (l *Logger) Fatal(args ...interface{})                 { l.s.Fatal(formatArgs(args)) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.s.Fatalf(format, args...) }
func (l *Logger) Panic(args ...interface{})                 { l.s.Panic(formatArgs(args)) }
func (l *Logger) Panicf(format string, args ...interface{}) { l.s.Panicf(format, args...) }
func (l *Logger) Debug(args ...interface{})                 { l.s.Debug(formatArgs(args)) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.s.Debugf(format, args...) }
func (l *Logger) Info(args ...interface{})                  { l.s.Info(formatArgs(args)) }
func (l *Logger) Infof(format string, args ...interface{})  { l.s.Infof(format, args...) }
func (l *Logger) Warn(args ...interface{})                  { l.s.Warn(formatArgs(args)) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.s.Warnf(format, args...) }
func (l *Logger) Error(args ...interface{})                 { l.s.Error(formatArgs(args)) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.s.Errorf(format, args...) }

func formatArgs(args []interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}
