/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logging provides module loggers.
//
//  Basic Flow:
//  1) Optionally Initialize a custom provider (zap is used otherwise)
//  2) Create a logger for a module with NewLogger
//  3) Log
package logging

import (
	"sync"

	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/api"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/metadata"
	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/zaplog"
)

// Logger is a module logger bound lazily to the provider
type Logger struct {
	instance api.Logger // access only via Logger.logger()
	module   string
	once     sync.Once
}

// logger factory singleton - access only via loggerProvider()
var loggerProviderInstance api.LoggerProvider
var loggerProviderOnce sync.Once

// Level defines all available log levels for log messages.
type Level int

// Log levels.
const (
	CRITICAL Level = iota
	ERROR
	WARNING
	INFO
	DEBUG
)

const loggerModule = "orchestrator/common"

// NewLogger creates and returns a Logger object based on the module name.
func NewLogger(module string) *Logger {
	return &Logger{module: module}
}

func loggerProvider() api.LoggerProvider {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = zaplog.NewProvider()
		loggerProviderInstance.GetLogger(loggerModule).Debug("Default zap logger provider initialized")
	})
	return loggerProviderInstance
}

// Initialize sets the provider that takes over logging. It has no effect
// once any logger has produced output.
func Initialize(l api.LoggerProvider) {
	loggerProviderOnce.Do(func() {
		loggerProviderInstance = l
		loggerProviderInstance.GetLogger(loggerModule).Debug("Logger provider initialized")
	})
}

// SetLevel sets the log level for module
func SetLevel(module string, level Level) {
	zaplog.SetLevel(module, api.Level(level))
}

// GetLevel returns the log level for module
func GetLevel(module string) Level {
	return Level(zaplog.GetLevel(module))
}

// IsEnabledFor returns true if level is enabled for module
func IsEnabledFor(module string, level Level) bool {
	return zaplog.IsEnabledFor(module, api.Level(level))
}

// LogLevel returns the log level from a string representation.
func LogLevel(level string) (Level, error) {
	l, err := metadata.ParseLevel(level)
	return Level(l), err
}

// Fatal calls Fatal function of underlying logger
func (l *Logger) Fatal(args ...interface{}) {
	l.logger().Fatal(args...)
}

// Fatalf calls Fatalf function of underlying logger
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.logger().Fatalf(format, args...)
}

// Panic calls Panic function of underlying logger
func (l *Logger) Panic(args ...interface{}) {
	l.logger().Panic(args...)
}

// Panicf calls Panicf function of underlying logger
func (l *Logger) Panicf(format string, args ...interface{}) {
	l.logger().Panicf(format, args...)
}

// Debug calls Debug function of underlying logger
func (l *Logger) Debug(args ...interface{}) {
	l.logger().Debug(args...)
}

// Debugf calls Debugf function of underlying logger
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger().Debugf(format, args...)
}

// Info calls Info function of underlying logger
func (l *Logger) Info(args ...interface{}) {
	l.logger().Info(args...)
}

// Infof calls Infof function of underlying logger
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger().Infof(format, args...)
}

// Warn calls Warn function of underlying logger
func (l *Logger) Warn(args ...interface{}) {
	l.logger().Warn(args...)
}

// Warnf calls Warnf function of underlying logger
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger().Warnf(format, args...)
}

// Error calls Error function of underlying logger
func (l *Logger) Error(args ...interface{}) {
	l.logger().Error(args...)
}

// Errorf calls Errorf function of underlying logger
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger().Errorf(format, args...)
}

func (l *Logger) logger() api.Logger {
	l.once.Do(func() {
		l.instance = loggerProvider().GetLogger(l.module)
	})
	return l.instance
}
