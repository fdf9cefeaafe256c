/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the network configuration through viper. Every value
// can be overridden by an environment variable named after the key with a
// prefix, FABRIC_ORCH by default: client.organization is read from
// FABRIC_ORCH_CLIENT_ORGANIZATION.
package config

import (
	"bytes"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/fabric-orchestrator/orchestrator/pkg/common/logging"
	"github.com/fabric-orchestrator/orchestrator/pkg/common/providers/core"
)

var logModules = [...]string{"orchestrator", "orchestrator/client", "orchestrator/core", "orchestrator/fab",
	"orchestrator/common", "orchestrator/msp", "orchestrator/util", "orchestrator/context"}

type options struct {
	envPrefix    string
	templatePath string
}

const (
	cmdRoot = "FABRIC_ORCH"
)

// Option configures the package.
type Option func(opts *options) error

// FromReader loads configuration from in.
// configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		return initFromReader(in, configType, opts...)
	}
}

// FromFile reads from named config file
func FromFile(name string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		if name == "" {
			return nil, errors.New("filename is required")
		}

		backend, err := newBackend(opts...)
		if err != nil {
			return nil, err
		}

		backend.configViper.SetConfigFile(name)
		if err := backend.configViper.MergeInConfig(); err != nil {
			return nil, errors.Wrapf(err, "loading config file failed: %s", name)
		}

		if err := setLogLevel(backend); err != nil {
			return nil, err
		}

		return []core.ConfigBackend{backend}, nil
	}
}

// FromRaw will initialize the configs from a byte array
func FromRaw(configBytes []byte, configType string, opts ...Option) core.ConfigProvider {
	return func() ([]core.ConfigBackend, error) {
		return initFromReader(bytes.NewBuffer(configBytes), configType, opts...)
	}
}

func initFromReader(in io.Reader, configType string, opts ...Option) ([]core.ConfigBackend, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}

	backend, err := newBackend(opts...)
	if err != nil {
		return nil, err
	}

	// viper needs the config type to parse a reader
	backend.configViper.SetConfigType(configType)
	if err := backend.configViper.MergeConfig(in); err != nil {
		return nil, errors.Wrap(err, "reading config failed")
	}

	if err := setLogLevel(backend); err != nil {
		return nil, err
	}

	return []core.ConfigBackend{backend}, nil
}

// WithEnvPrefix defines the prefix for environment variable overrides.
// See viper SetEnvPrefix for more information.
func WithEnvPrefix(prefix string) Option {
	return func(opts *options) error {
		if prefix == "" {
			return errors.New("env prefix must not be empty")
		}
		opts.envPrefix = prefix
		return nil
	}
}

// WithTemplatePath loads defaults from the config file found in path before
// the main configuration is merged in.
func WithTemplatePath(path string) Option {
	return func(opts *options) error {
		opts.templatePath = path
		return nil
	}
}

func newBackend(opts ...Option) (*defConfigBackend, error) {
	o := options{
		envPrefix: cmdRoot,
	}

	for _, option := range opts {
		if err := option(&o); err != nil {
			return nil, errors.WithMessage(err, "Error in options passed to create new config backend")
		}
	}

	backend := &defConfigBackend{
		configViper: newViper(o.envPrefix),
		opts:        o,
	}

	if err := backend.loadTemplateConfig(); err != nil {
		return nil, err
	}

	return backend, nil
}

func newViper(cmdRootPrefix string) *viper.Viper {
	myViper := viper.New()
	myViper.SetEnvPrefix(cmdRootPrefix)
	myViper.AutomaticEnv()
	myViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return myViper
}

// setLogLevel applies client.logging.level to every module and then the
// per-module overrides found under client.logging.modules
func setLogLevel(backend core.ConfigBackend) error {
	logLevel := logging.INFO
	if value, ok := backend.Lookup("client.logging.level"); ok {
		var err error
		logLevel, err = logging.LogLevel(cast.ToString(value))
		if err != nil {
			return errors.WithMessage(err, "invalid client.logging.level")
		}
	}

	for _, logModule := range logModules {
		logging.SetLevel(logModule, logLevel)
	}

	value, ok := backend.Lookup("client.logging.modules")
	if !ok {
		return nil
	}
	for module, level := range cast.ToStringMapString(value) {
		l, err := logging.LogLevel(level)
		if err != nil {
			return errors.WithMessagef(err, "invalid log level for module %s", module)
		}
		logging.SetLevel(module, l)
	}
	return nil
}
