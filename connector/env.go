// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package connector

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the environment-derived configuration consumed by Connector
// (spec §6 "Environment variables").
type Config struct {
	Host   string
	Port   int
	Socket string // unset unless JRS_CONNECTOR_SOCKET is set; wins over Host/Port when set

	AliasName string

	MetricsHost string
	MetricsPort int

	SystemMetrics       bool
	ExternalCallsMetric bool
	MetricsToLog        bool

	StaticDir     string
	ConnectorPath string
	BodySizeLimit int64 // bytes
}

// envConfig accumulates parse errors rather than failing on the first bad
// variable, grounded on the teacher's applyEnvOverrides/addError pattern.
type envConfig struct {
	errors []error
}

func (e *envConfig) addError(envVar string, err error) {
	e.errors = append(e.errors, fmt.Errorf("invalid environment variable %s: %w", envVar, err))
}

// ConfigFromEnv reads the JRS_* environment variables of spec.md §6,
// applying their documented defaults. All parse failures are collected and
// returned together rather than failing on the first bad variable.
func ConfigFromEnv() (Config, error) {
	env := &envConfig{}

	cfg := Config{
		Host:          getString("JRS_CONNECTOR_HOST", "0.0.0.0"),
		Port:          getInt("JRS_CONNECTOR_PORT", 3000, env),
		Socket:        getString("JRS_CONNECTOR_SOCKET", ""),
		AliasName:     getString("JRS_CONNECTOR_ALIAS_NAME", DefaultAlias),
		MetricsHost:   getString("JRS_METRICS_HOST", "127.0.0.1"),
		MetricsPort:   getInt("JRS_METRICS_PORT", 9777, env),
		StaticDir:     getString("JRS_SERVER_STATIC_DIR", ""),
		ConnectorPath: getString("JRS_SERVER_CONNECTOR_PATH", "/"),
	}

	cfg.SystemMetrics = getBool("JRS_SYSTEM_METRICS", false)
	cfg.ExternalCallsMetric = getBool("JRS_EXTERNAL_CALLS_METRICS", false)
	cfg.MetricsToLog = getBool("JRS_METRICS_TO_LOG", false)

	cfg.BodySizeLimit = getBytes("JRS_SERVER_BODY_SIZE_LIMIT", 20*1024*1024, env)

	if len(env.errors) > 0 {
		var sb strings.Builder
		for i, e := range env.errors {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(e.Error())
		}
		return cfg, fmt.Errorf("connector: invalid configuration: %s", sb.String())
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, env *envConfig) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		env.addError(key, err)
		return fallback
	}
	return parsed
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// getBytes parses a human size like "20mb"/"512kb"/"100" (bytes).
func getBytes(key string, fallback int64, env *envConfig) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	v = strings.ToLower(strings.TrimSpace(v))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(v, "kb"):
		multiplier = 1024
		v = strings.TrimSuffix(v, "kb")
	case strings.HasSuffix(v, "mb"):
		multiplier = 1024 * 1024
		v = strings.TrimSuffix(v, "mb")
	case strings.HasSuffix(v, "gb"):
		multiplier = 1024 * 1024 * 1024
		v = strings.TrimSuffix(v, "gb")
	case strings.HasSuffix(v, "b"):
		v = strings.TrimSuffix(v, "b")
	}

	parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		env.addError(key, err)
		return fallback
	}
	return parsed * multiplier
}
