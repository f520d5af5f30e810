// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package common

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/Shopify/sarama"
	"github.com/xdg/scram"
)

// GetKafkaVersion checks the provided version against supported kafka versions and returns a sarama version
func GetKafkaVersion(targetVersion string) (sarama.KafkaVersion, error) {
	if targetVersion == "" {
		return sarama.DefaultVersion, nil
	}

	parsedVersion, err := sarama.ParseKafkaVersion(targetVersion)
	if err != nil {
		return sarama.DefaultVersion, err
	}

	for _, version := range sarama.SupportedVersions {
		if version == parsedVersion {
			return parsedVersion, nil
		}
	}
	return sarama.DefaultVersion, fmt.Errorf("unsupported version `%s`. select older, compatible version instead", parsedVersion)
}

// ConfigureSASL enables SASL authentication on the producer config for the
// given algorithm ("sha256", "sha512" or "plaintext")
func ConfigureSASL(config *sarama.Config, saslAlgo string, saslUser string, saslPassword string) error {
	switch saslAlgo {
	case "sha512":
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &xdgSCRAMClient{HashGeneratorFcn: SHA512}
		}
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
	case "sha256":
		config.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &xdgSCRAMClient{HashGeneratorFcn: SHA256}
		}
		config.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
	case "plaintext":
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	default:
		return fmt.Errorf("invalid SASL algorithm %q: can be either \"sha256\", \"sha512\" or \"plaintext\"", saslAlgo)
	}

	config.Net.SASL.Enable = true
	config.Net.SASL.Handshake = true
	config.Net.SASL.User = saslUser
	config.Net.SASL.Password = saslPassword
	return nil
}

// SHA256 hash
var SHA256 scram.HashGeneratorFcn = func() hash.Hash { return sha256.New() }

// SHA512 hash
var SHA512 scram.HashGeneratorFcn = func() hash.Hash { return sha512.New() }

// xdgSCRAMClient adapts xdg/scram to the sarama.SCRAMClient interface
type xdgSCRAMClient struct {
	*scram.Client
	*scram.ClientConversation
	scram.HashGeneratorFcn
}

func (x *xdgSCRAMClient) Begin(userName, password, authzID string) (err error) {
	x.Client, err = x.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	x.ClientConversation = x.NewConversation()
	return nil
}

func (x *xdgSCRAMClient) Step(challenge string) (string, error) {
	return x.ClientConversation.Step(challenge)
}

func (x *xdgSCRAMClient) Done() bool {
	return x.ClientConversation.Done()
}
