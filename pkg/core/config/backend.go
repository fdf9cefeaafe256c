/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/fabric-orchestrator/orchestrator/pkg/util/pathvar"
)

// defConfigBackend is the viper backed configuration
type defConfigBackend struct {
	configViper *viper.Viper
	opts        options
}

// Lookup gets the config item value by Key
func (c *defConfigBackend) Lookup(key string) (interface{}, bool) {
	value := c.configViper.Get(key)
	if value == nil {
		return nil, false
	}
	return value, true
}

func (c *defConfigBackend) loadTemplateConfig() error {
	if c.opts.templatePath == "" {
		return nil
	}

	c.configViper.AddConfigPath(pathvar.Subst(c.opts.templatePath))
	if err := c.configViper.ReadInConfig(); err != nil {
		return errors.Wrap(err, "loading template config failed")
	}
	return nil
}
