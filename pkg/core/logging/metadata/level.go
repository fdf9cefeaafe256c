/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metadata keeps per-module log levels.
package metadata

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/fabric-orchestrator/orchestrator/pkg/core/logging/api"
)

var levelNames = []string{
	"CRITICAL",
	"ERROR",
	"WARNING",
	"INFO",
	"DEBUG",
}

// ModuleLevels maintains log levels based on module. The empty module name
// holds the default level.
type ModuleLevels struct {
	mutex  sync.RWMutex
	levels map[string]api.Level
}

// GetLevel returns the log level for the given module, falling back to the
// default level and then to INFO.
func (l *ModuleLevels) GetLevel(module string) api.Level {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	if level, ok := l.levels[module]; ok {
		return level
	}
	if level, ok := l.levels[""]; ok {
		return level
	}
	return api.INFO
}

// SetLevel sets the log level for the given module.
func (l *ModuleLevels) SetLevel(module string, level api.Level) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.levels == nil {
		l.levels = make(map[string]api.Level)
	}
	l.levels[module] = level
}

// IsEnabledFor will return true if logging is enabled for the given module.
func (l *ModuleLevels) IsEnabledFor(module string, level api.Level) bool {
	return level <= l.GetLevel(module)
}

// ParseLevel returns the log level from a string representation.
func ParseLevel(level string) (api.Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, level) {
			return api.Level(i), nil
		}
	}
	return api.ERROR, errors.Errorf("invalid log level [%s]", level)
}

// ParseString returns the name of the level
func ParseString(level api.Level) string {
	if level < 0 || int(level) >= len(levelNames) {
		return "UNKNOWN"
	}
	return levelNames[level]
}
