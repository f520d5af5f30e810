// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"encoding/base64"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/pkg/common"
)

func TestInit_Success(t *testing.T) {
	assert := assert.New(t)

	cfg, _, err := Init()
	assert.NotNil(cfg)
	assert.Nil(err)
}

func TestInit_Failure(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("STATS_RECEIVER_TIMEOUT_SEC", "debug")

	cfg, _, err := Init()
	assert.Nil(cfg)
	if assert.NotNil(err) {
		assert.Contains(err.Error(), "Failed to build config")
	}
}

func TestInit_Success_Sentry(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("SENTRY_DSN", "https://1111111111111111111111111111111d@sentry.snplow.net/28")
	t.Setenv("SENTRY_TAGS", "{\"client_name\":\"com.acme\"}")

	cfg, sentryEnabled, err := Init()
	assert.NotNil(cfg)
	assert.True(sentryEnabled)
	assert.Nil(err)
}

func TestInit_Failure_LogLevel(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, _, err := Init()
	assert.Nil(cfg)
	if assert.NotNil(err) {
		assert.Equal("Supported log levels are 'debug, info, warning, error, fatal, panic'; provided DEBUG", err.Error())
	}
}

func TestInit_Failure_SentryDSN(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("SENTRY_DSN", "blahblah")

	cfg, _, err := Init()
	assert.Nil(cfg)
	if assert.NotNil(err) {
		assert.Equal("Failed to build Sentry: [Sentry] DsnParseError: invalid scheme", err.Error())
	}
}

func TestInit_Failure_SentryTags(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("SENTRY_DSN", "https://1111111111111111111111111111111d@sentry.snplow.net/28")
	t.Setenv("SENTRY_TAGS", "asdasdasd")

	cfg, _, err := Init()
	assert.Nil(cfg)
	if assert.NotNil(err) {
		assert.Contains(err.Error(), "Failed to unmarshall SENTRY_TAGS to map")
	}
}

func TestInit_GCPServiceAccount(t *testing.T) {
	assert := assert.New(t)
	defer common.DeleteTemporaryDir()

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_B64", base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`)))

	cfg, _, err := Init()
	assert.NotNil(cfg)
	assert.Nil(err)

	credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if assert.NotEmpty(credentials) {
		data, err := os.ReadFile(credentials)
		assert.Nil(err)
		assert.Equal(`{"type":"service_account"}`, string(data))
	}
}

func TestInit_Failure_GCPServiceAccount(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_B64", "not%base64")

	cfg, _, err := Init()
	assert.Nil(cfg)
	if assert.NotNil(err) {
		assert.Contains(err.Error(), "Failed to store GCP Service Account JSON file")
	}
}
