/*
Copyright 2019 Google LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package options loads the configuration file of the operator.
package options

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v2"
)

// Defaults of the configuration.
const (
	DefaultSubjectPrefix         = "streams"
	DefaultRestAddr              = ":10080"
	DefaultRestMaxConnections    = 256
	DefaultCommandTimeout        = 30 * time.Second
	DefaultResyncSchedule        = "@every 1m"
	DefaultBundleAttempts        = 30
	DefaultBundleInterval        = 1 * time.Second
	DefaultBundleCacheTTL        = 10 * time.Minute
	DefaultLogLevel              = "info"
	DefaultJobRetryIntervalSec   = 60
	DefaultMaxEventsPerReconcile = 16
)

// Nats configures the notification transport.
type Nats struct {
	// Notifications are only recorded on the boards when disabled.
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix"`
}

// Rest configures the REST listener.
type Rest struct {
	Addr           string `yaml:"addr"`
	MaxConnections int    `yaml:"maxConnections"`
}

// Bundles configures the bundle loader.
type Bundles struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// Operator is the configuration of the operator process.
type Operator struct {
	LogLevel string  `yaml:"logLevel"`
	Nats     Nats    `yaml:"nats"`
	Rest     Rest    `yaml:"rest"`
	Bundles  Bundles `yaml:"bundles"`

	// Resolution timeout of coordinator commands.
	CommandTimeout time.Duration `yaml:"commandTimeout"`
	// Cron schedule of the region resync sweep.
	ResyncSchedule        string `yaml:"resyncSchedule"`
	JobRetryIntervalSec   int    `yaml:"jobRetryIntervalSec"`
	MaxEventsPerReconcile int    `yaml:"maxEventsPerReconcile"`
}

// Load reads the configuration file at path, the defaults when path is
// empty.
func Load(path string) (*Operator, error) {
	var operator = &Operator{}
	if path != "" {
		var data, err = ioutil.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if operator, err = Parse(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		return operator, nil
	}
	operator.SetDefaults()
	return operator, operator.Validate()
}

// Parse decodes a configuration, applies its defaults and validates it.
func Parse(data []byte) (*Operator, error) {
	var operator Operator
	if err := yaml.UnmarshalStrict(data, &operator); err != nil {
		return nil, err
	}
	operator.SetDefaults()
	if err := operator.Validate(); err != nil {
		return nil, err
	}
	return &operator, nil
}

// SetDefaults sets default values for unspecified properties.
func (o *Operator) SetDefaults() {
	if o.LogLevel == "" {
		o.LogLevel = DefaultLogLevel
	}
	if o.Nats.SubjectPrefix == "" {
		o.Nats.SubjectPrefix = DefaultSubjectPrefix
	}
	if o.Rest.Addr == "" {
		o.Rest.Addr = DefaultRestAddr
	}
	if o.Rest.MaxConnections == 0 {
		o.Rest.MaxConnections = DefaultRestMaxConnections
	}
	if o.Bundles.Attempts == 0 {
		o.Bundles.Attempts = DefaultBundleAttempts
	}
	if o.Bundles.Interval == 0 {
		o.Bundles.Interval = DefaultBundleInterval
	}
	if o.Bundles.CacheTTL == 0 {
		o.Bundles.CacheTTL = DefaultBundleCacheTTL
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	if o.ResyncSchedule == "" {
		o.ResyncSchedule = DefaultResyncSchedule
	}
	if o.JobRetryIntervalSec == 0 {
		o.JobRetryIntervalSec = DefaultJobRetryIntervalSec
	}
	if o.MaxEventsPerReconcile == 0 {
		o.MaxEventsPerReconcile = DefaultMaxEventsPerReconcile
	}
}

// Validate returns an error naming the first invalid property.
func (o *Operator) Validate() error {
	if _, err := o.Level(); err != nil {
		return fmt.Errorf("logLevel: %w", err)
	}
	if o.Nats.Enabled && o.Nats.URL == "" {
		return fmt.Errorf("nats.url: required when notifications are enabled")
	}
	if o.Rest.MaxConnections < 0 {
		return fmt.Errorf("rest.maxConnections: must be positive, got %d", o.Rest.MaxConnections)
	}
	if o.Bundles.Attempts < 0 {
		return fmt.Errorf("bundles.attempts: must be positive, got %d", o.Bundles.Attempts)
	}
	if o.Bundles.Interval < 0 || o.Bundles.CacheTTL < 0 {
		return fmt.Errorf("bundles: interval and cacheTTL must be positive")
	}
	if o.CommandTimeout < 0 {
		return fmt.Errorf("commandTimeout: must be positive, got %v", o.CommandTimeout)
	}
	if _, err := cron.ParseStandard(o.ResyncSchedule); err != nil {
		return fmt.Errorf("resyncSchedule: %w", err)
	}
	if o.JobRetryIntervalSec < 0 {
		return fmt.Errorf("jobRetryIntervalSec: must be positive, got %d", o.JobRetryIntervalSec)
	}
	if o.MaxEventsPerReconcile < 0 {
		return fmt.Errorf("maxEventsPerReconcile: must be positive, got %d", o.MaxEventsPerReconcile)
	}
	return nil
}

// Level returns the zap level of the configured log level.
func (o *Operator) Level() (zapcore.Level, error) {
	var level zapcore.Level
	var err = level.UnmarshalText([]byte(o.LogLevel))
	return level, err
}
