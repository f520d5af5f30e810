// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/common"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// KafkaConfig contains configurable options for the kafka target
type KafkaConfig struct {
	Brokers        string `hcl:"brokers" env:"TARGET_KAFKA_BROKERS"`
	TopicName      string `hcl:"topic_name" env:"TARGET_KAFKA_TOPIC_NAME"`
	TargetVersion  string `hcl:"target_version,optional" env:"TARGET_KAFKA_TARGET_VERSION"`
	MaxRetries     int    `hcl:"max_retries,optional" env:"TARGET_KAFKA_MAX_RETRIES"`
	ByteLimit      int    `hcl:"byte_limit,optional" env:"TARGET_KAFKA_BYTE_LIMIT"`
	Compress       bool   `hcl:"compress,optional" env:"TARGET_KAFKA_COMPRESS"`
	WaitForAll     bool   `hcl:"wait_for_all,optional" env:"TARGET_KAFKA_WAIT_FOR_ALL"`
	Idempotent     bool   `hcl:"idempotent,optional" env:"TARGET_KAFKA_IDEMPOTENT"`
	EnableSASL     bool   `hcl:"enable_sasl,optional" env:"TARGET_KAFKA_ENABLE_SASL"`
	SASLUsername   string `hcl:"sasl_username,optional" env:"TARGET_KAFKA_SASL_USERNAME"`
	SASLPassword   string `hcl:"sasl_password,optional" env:"TARGET_KAFKA_SASL_PASSWORD"`
	SASLAlgorithm  string `hcl:"sasl_algorithm,optional" env:"TARGET_KAFKA_SASL_ALGORITHM"`
	CertFile       string `hcl:"cert_file,optional" env:"TARGET_KAFKA_TLS_CERT_FILE"`
	KeyFile        string `hcl:"key_file,optional" env:"TARGET_KAFKA_TLS_KEY_FILE"`
	CaFile         string `hcl:"ca_file,optional" env:"TARGET_KAFKA_TLS_CA_FILE"`
	SkipVerifyTLS  bool   `hcl:"skip_verify_tls,optional" env:"TARGET_KAFKA_TLS_SKIP_VERIFY_TLS"`
	FlushFrequency int    `hcl:"flush_frequency,optional" env:"TARGET_KAFKA_FLUSH_FREQUENCY"`
	FlushMessages  int    `hcl:"flush_messages,optional" env:"TARGET_KAFKA_FLUSH_MESSAGES"`
	FlushBytes     int    `hcl:"flush_bytes,optional" env:"TARGET_KAFKA_FLUSH_BYTES"`
}

// KafkaTarget holds a new client for writing messages to Apache Kafka
type KafkaTarget struct {
	producer         sarama.SyncProducer
	topicName        string
	brokers          string
	messageByteLimit int

	log *log.Entry
}

// NewKafkaTarget creates a new client for writing messages to Apache Kafka
func NewKafkaTarget(cfg *KafkaConfig) (*KafkaTarget, error) {
	kafkaVersion, err := common.GetKafkaVersion(cfg.TargetVersion)
	if err != nil {
		return nil, err
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = "snowplow_aws_blocks"
	saramaConfig.Version = kafkaVersion
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.MaxMessageBytes = cfg.ByteLimit

	// Must be enabled for the SyncProducer
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	if cfg.WaitForAll {
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	}

	if cfg.Idempotent {
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
		saramaConfig.Producer.Idempotent = true
		saramaConfig.Net.MaxOpenRequests = 1
	}

	if cfg.Compress {
		saramaConfig.Producer.Compression = sarama.CompressionSnappy
	}

	saramaConfig.Producer.Flush.Messages = cfg.FlushMessages
	saramaConfig.Producer.Flush.Bytes = cfg.FlushBytes
	saramaConfig.Producer.Flush.Frequency = time.Duration(cfg.FlushFrequency) * time.Millisecond

	if cfg.EnableSASL {
		if err := common.ConfigureSASL(saramaConfig, cfg.SASLAlgorithm, cfg.SASLUsername, cfg.SASLPassword); err != nil {
			return nil, err
		}
	}

	tlsConfig, err := common.CreateTLSConfiguration(cfg.CertFile, cfg.KeyFile, cfg.CaFile, cfg.SkipVerifyTLS)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		saramaConfig.Net.TLS.Config = tlsConfig
		saramaConfig.Net.TLS.Enable = true
	}

	producer, err := sarama.NewSyncProducer(strings.Split(cfg.Brokers, ","), saramaConfig)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create Kafka producer")
	}

	return newKafkaTargetWithInterfaces(producer, cfg.Brokers, cfg.TopicName, cfg.ByteLimit), nil
}

func newKafkaTargetWithInterfaces(producer sarama.SyncProducer, brokers string, topicName string, byteLimit int) *KafkaTarget {
	return &KafkaTarget{
		producer:         producer,
		brokers:          brokers,
		topicName:        topicName,
		messageByteLimit: byteLimit,
		log:              log.WithFields(log.Fields{"target": "kafka", "brokers": brokers, "topic": topicName}),
	}
}

// The KafkaTargetAdapter type is an adapter for functions to be used as
// pluggable components for Kafka target. It implements the Pluggable interface.
type KafkaTargetAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f KafkaTargetAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f KafkaTargetAdapter) ProvideDefault() (interface{}, error) {
	return &KafkaConfig{
		MaxRetries:    10,
		ByteLimit:     1048576,
		SASLAlgorithm: "sha512",
	}, nil
}

// AdaptKafkaTargetFunc returns a KafkaTargetAdapter.
func AdaptKafkaTargetFunc(f func(c *KafkaConfig) (*KafkaTarget, error)) KafkaTargetAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*KafkaConfig)
		if !ok {
			return nil, errors.New("invalid input, expected KafkaConfig")
		}

		return f(cfg)
	}
}

// Write pushes all messages to the required target
func (kt *KafkaTarget) Write(messages []*models.Message) (*models.TargetWriteResult, error) {
	kt.log.Debugf("Writing %d messages to topic ...", len(messages))

	safeMessages, oversized := models.FilterOversizedMessages(
		messages,
		kt.MaximumAllowedMessageSizeBytes(),
	)

	var sent []*models.Message
	var failed []*models.Message
	var errResult error

	for _, msg := range safeMessages {
		_, _, err := kt.producer.SendMessage(&sarama.ProducerMessage{
			Topic: kt.topicName,
			Key:   sarama.StringEncoder(msg.PartitionKey),
			Value: sarama.ByteEncoder(msg.Data),
		})

		if err != nil {
			errResult = multierror.Append(errResult, err)
			msg.SetError(err)
			failed = append(failed, msg)
			continue
		}

		if msg.AckFunc != nil {
			msg.AckFunc()
		}
		sent = append(sent, msg)
	}

	if errResult != nil {
		errResult = errors.Wrap(errResult, fmt.Sprintf("Error writing messages to Kafka topic: %v", kt.topicName))
	}

	kt.log.Debugf("Successfully wrote %d/%d messages", len(sent), len(safeMessages))
	return models.NewTargetWriteResult(
		sent,
		failed,
		oversized,
		nil,
	), errResult
}

// Open does not do anything for this target
func (kt *KafkaTarget) Open() {}

// Close stops the producer
func (kt *KafkaTarget) Close() {
	kt.log.Warnf("Closing target for topic '%s'", kt.topicName)
	if err := kt.producer.Close(); err != nil {
		kt.log.Fatal("Failed to close producer:", err)
	}
}

// MaximumAllowedMessageSizeBytes returns the max number of bytes that can be sent
// per message for this target
func (kt *KafkaTarget) MaximumAllowedMessageSizeBytes() int {
	return kt.messageByteLimit
}

// GetID returns the identifier for this target
func (kt *KafkaTarget) GetID() string {
	return fmt.Sprintf("brokers:%s:topic:%s", kt.brokers, kt.topicName)
}
