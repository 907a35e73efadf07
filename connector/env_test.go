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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, "", cfg.Socket)
	require.Equal(t, DefaultAlias, cfg.AliasName)
	require.Equal(t, "127.0.0.1", cfg.MetricsHost)
	require.Equal(t, 9777, cfg.MetricsPort)
	require.Equal(t, int64(20*1024*1024), cfg.BodySizeLimit)
	require.Equal(t, "/", cfg.ConnectorPath)
}

func TestConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("JRS_CONNECTOR_HOST", "127.0.0.1")
	t.Setenv("JRS_CONNECTOR_PORT", "4000")
	t.Setenv("JRS_CONNECTOR_SOCKET", "/tmp/conn.sock")
	t.Setenv("JRS_EXTERNAL_CALLS_METRICS", "true")
	t.Setenv("JRS_SERVER_BODY_SIZE_LIMIT", "5mb")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, 4000, cfg.Port)
	require.Equal(t, "/tmp/conn.sock", cfg.Socket)
	require.True(t, cfg.ExternalCallsMetric)
	require.Equal(t, int64(5*1024*1024), cfg.BodySizeLimit)
}

func TestConfigFromEnvAccumulatesParseErrors(t *testing.T) {
	t.Setenv("JRS_CONNECTOR_PORT", "not-a-number")
	t.Setenv("JRS_METRICS_PORT", "also-bad")

	_, err := ConfigFromEnv()
	require.Error(t, err)
	require.Contains(t, err.Error(), "JRS_CONNECTOR_PORT")
	require.Contains(t, err.Error(), "JRS_METRICS_PORT")
}
