// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/stretchr/testify/assert"
)

func TestGetGCPServiceAccountFromBase64(t *testing.T) {
	assert := assert.New(t)
	defer DeleteTemporaryDir()

	path, err := GetGCPServiceAccountFromBase64("ewogICJoZWxsbyI6IndvcmxkIgp9")
	assert.Nil(err)
	assert.True(strings.HasPrefix(path, filepath.Join(TemporaryDir, "aws-blocks-service-account-")))
	assert.True(strings.HasSuffix(path, ".json"))

	content, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Equal("{\n  \"hello\":\"world\"\n}", string(content))
}

func TestGetGCPServiceAccountFromBase64_NotBase64(t *testing.T) {
	assert := assert.New(t)

	path, err := GetGCPServiceAccountFromBase64("helloworld")
	assert.Equal("", path)
	if assert.NotNil(err) {
		assert.True(strings.HasPrefix(err.Error(), "Failed to Base64 decode"))
	}
}

func TestCreateTLSConfiguration_Disabled(t *testing.T) {
	assert := assert.New(t)

	conf, err := CreateTLSConfiguration("", "", "", false)
	assert.Nil(conf)
	assert.Nil(err)
}

func TestCreateTLSConfiguration_MissingFiles(t *testing.T) {
	assert := assert.New(t)

	conf, err := CreateTLSConfiguration("does-not-exist.crt", "does-not-exist.key", "", false)
	assert.Nil(conf)
	if assert.NotNil(err) {
		assert.True(strings.HasPrefix(err.Error(), "Failed to load client key pair"))
	}
}

func TestGetKafkaVersion(t *testing.T) {
	assert := assert.New(t)

	v, err := GetKafkaVersion("")
	assert.Nil(err)
	assert.Equal(sarama.DefaultVersion, v)

	v, err = GetKafkaVersion("2.1.0")
	assert.Nil(err)
	assert.Equal(sarama.V2_1_0_0, v)

	_, err = GetKafkaVersion("not-a-version")
	assert.NotNil(err)

	_, err = GetKafkaVersion("0.1.0")
	assert.NotNil(err)
}

func TestConfigureSASL(t *testing.T) {
	testCases := []struct {
		Algo      string
		Mechanism sarama.SASLMechanism
		SCRAM     bool
	}{
		{"sha512", sarama.SASLTypeSCRAMSHA512, true},
		{"sha256", sarama.SASLTypeSCRAMSHA256, true},
		{"plaintext", sarama.SASLTypePlaintext, false},
	}

	for _, tt := range testCases {
		t.Run(tt.Algo, func(t *testing.T) {
			assert := assert.New(t)

			config := sarama.NewConfig()
			err := ConfigureSASL(config, tt.Algo, "user", "pass")
			assert.Nil(err)
			assert.True(config.Net.SASL.Enable)
			assert.Equal(tt.Mechanism, config.Net.SASL.Mechanism)
			assert.Equal("user", config.Net.SASL.User)
			assert.Equal(tt.SCRAM, config.Net.SASL.SCRAMClientGeneratorFunc != nil)
		})
	}
}

func TestConfigureSASL_Invalid(t *testing.T) {
	assert := assert.New(t)

	config := sarama.NewConfig()
	err := ConfigureSASL(config, "md5", "user", "pass")
	assert.EqualError(err, `invalid SASL algorithm "md5": can be either "sha256", "sha512" or "plaintext"`)
	assert.False(config.Net.SASL.Enable)
}

func TestXDGSCRAMClient_Begin(t *testing.T) {
	assert := assert.New(t)

	client := &xdgSCRAMClient{HashGeneratorFcn: SHA256}
	assert.Nil(client.Begin("user", "pass", ""))
	assert.False(client.Done())

	first, err := client.Step("")
	assert.Nil(err)
	assert.True(strings.HasPrefix(first, "n,,n=user,r="))
}
