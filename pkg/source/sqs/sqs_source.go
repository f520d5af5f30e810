// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package sqssource

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twinj/uuid"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

// SQSSourceConfig configures the queue events are consumed from
type SQSSourceConfig struct {
	QueueName            string `hcl:"queue_name" env:"SOURCE_SQS_QUEUE_NAME"`
	Region               string `hcl:"region" env:"SOURCE_SQS_REGION"`
	RoleARN              string `hcl:"role_arn,optional" env:"SOURCE_SQS_ROLE_ARN"`
	CustomAWSEndpoint    string `hcl:"custom_aws_endpoint,optional" env:"SOURCE_SQS_CUSTOM_AWS_ENDPOINT"`
	ConcurrentWrites     int    `hcl:"concurrent_writes,optional" env:"SOURCE_CONCURRENT_WRITES"`
	VisibilityTimeoutSec int    `hcl:"visibility_timeout_sec,optional" env:"SOURCE_SQS_VISIBILITY_TIMEOUT_SEC"`
}

// sqsSource holds a new client for reading events from SQS
type sqsSource struct {
	client            sqsiface.SQSAPI
	queueURL          string
	queueName         string
	concurrentWrites  int
	visibilityTimeout int64
	region            string

	log *log.Entry

	// exitSignal holds a channel for signalling an end to the read loop
	exitSignal chan struct{}

	// processErrorSignal ends the read loop on the first receive error
	processErrorSignal chan error
}

// configFunctionGeneratorWithInterfaces generates the SQS source config function around
// a provided client, for mocking and localstack usage
func configFunctionGeneratorWithInterfaces(client sqsiface.SQSAPI) func(c *SQSSourceConfig) (sourceiface.Source, error) {
	return func(c *SQSSourceConfig) (sourceiface.Source, error) {
		return newSQSSourceWithInterfaces(client, c.ConcurrentWrites, c.VisibilityTimeoutSec, c.Region, c.QueueName)
	}
}

// configFunction returns an SQS source from a config
func configFunction(c *SQSSourceConfig) (sourceiface.Source, error) {
	sess, err := awsclient.NewSession(&awsclient.Settings{
		Region:   c.Region,
		RoleARN:  c.RoleARN,
		Endpoint: c.CustomAWSEndpoint,
	})
	if err != nil {
		return nil, err
	}

	return configFunctionGeneratorWithInterfaces(sqs.New(sess))(c)
}

// The SQSSourceAdapter type is an adapter for functions to be used as
// pluggable components for SQS Source. It implements the Pluggable interface.
type SQSSourceAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f SQSSourceAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f SQSSourceAdapter) ProvideDefault() (interface{}, error) {
	return &SQSSourceConfig{
		ConcurrentWrites:     50,
		VisibilityTimeoutSec: 60,
	}, nil
}

// AdaptSQSSourceFunc returns an SQSSourceAdapter.
func AdaptSQSSourceFunc(f func(c *SQSSourceConfig) (sourceiface.Source, error)) SQSSourceAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*SQSSourceConfig)
		if !ok {
			return nil, errors.New("invalid input, expected SQSSourceConfig")
		}

		return f(cfg)
	}
}

// ConfigPair is passed to configuration to determine when and how to build
// an SQS source.
var ConfigPair = sourceconfig.ConfigPair{
	Name:   "sqs",
	Handle: AdaptSQSSourceFunc(configFunction),
}

func newSQSSourceWithInterfaces(client sqsiface.SQSAPI, concurrentWrites int, visibilityTimeoutSec int, region string, queueName string) (*sqsSource, error) {
	if concurrentWrites < 1 {
		return nil, errors.Errorf("concurrent_writes must be at least 1, got %d", concurrentWrites)
	}

	return &sqsSource{
		client:             client,
		queueName:          queueName,
		concurrentWrites:   concurrentWrites,
		visibilityTimeout:  int64(visibilityTimeoutSec),
		region:             region,
		log:                log.WithFields(log.Fields{"source": "sqs", "cloud": "AWS", "region": region, "queue": queueName}),
		exitSignal:         make(chan struct{}),
		processErrorSignal: make(chan error, concurrentWrites),
	}, nil
}

// Read will pull events from the noted SQS queue until stopped
func (ss *sqsSource) Read(sf *sourceiface.SourceFunctions) error {
	ss.log.Info("Reading events from queue ...")

	urlResult, err := ss.client.GetQueueUrl(&sqs.GetQueueUrlInput{
		QueueName: aws.String(ss.queueName),
	})
	if err != nil {
		return errors.Wrap(err, "Failed to get SQS queue URL")
	}
	ss.queueURL = aws.StringValue(urlResult.QueueUrl)

	throttle := make(chan struct{}, ss.concurrentWrites)
	wg := sync.WaitGroup{}

	var processErr error

ProcessLoop:
	for {
		select {
		case <-ss.exitSignal:
			break ProcessLoop
		case processErr = <-ss.processErrorSignal:
			break ProcessLoop
		case throttle <- struct{}{}:
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := ss.process(sf)
				if err != nil {
					ss.processErrorSignal <- err
				}
				<-throttle
			}()
		}
	}
	wg.Wait()

	return processErr
}

func (ss *sqsSource) process(sf *sourceiface.SourceFunctions) error {
	msgRes, err := ss.client.ReceiveMessage(&sqs.ReceiveMessageInput{
		AttributeNames: []*string{
			aws.String(sqs.MessageSystemAttributeNameSentTimestamp),
		},
		QueueUrl:            aws.String(ss.queueURL),
		MaxNumberOfMessages: aws.Int64(10),
		VisibilityTimeout:   aws.Int64(ss.visibilityTimeout),
		WaitTimeSeconds:     aws.Int64(1),
	})
	if err != nil {
		return errors.Wrap(err, "Failed to get message from SQS queue")
	}
	if len(msgRes.Messages) == 0 {
		return nil
	}
	timePulled := time.Now().UTC()

	messages := make([]*models.Message, 0, len(msgRes.Messages))
	for _, msg := range msgRes.Messages {
		messages = append(messages, &models.Message{
			Data:         []byte(aws.StringValue(msg.Body)),
			PartitionKey: uuid.NewV4().String(),
			AckFunc:      ss.ackFunc(msg.ReceiptHandle),
			TimeCreated:  ss.timeCreated(msg, timePulled),
			TimePulled:   timePulled,
		})
	}

	err = sf.WriteToTarget(messages)
	if err != nil {
		ss.log.WithFields(log.Fields{"error": err}).Error(err)
	}
	return nil
}

// ackFunc deletes the message once its outcome has been written
func (ss *sqsSource) ackFunc(receiptHandle *string) func() {
	return func() {
		ss.log.Debugf("Deleting message with receipt handle: %s", aws.StringValue(receiptHandle))
		_, err := ss.client.DeleteMessage(&sqs.DeleteMessageInput{
			QueueUrl:      aws.String(ss.queueURL),
			ReceiptHandle: receiptHandle,
		})
		if err != nil {
			err = errors.Wrap(err, "Failed to delete message from SQS queue")
			ss.log.WithFields(log.Fields{"error": err}).Error(err)
		}
	}
}

func (ss *sqsSource) timeCreated(msg *sqs.Message, timePulled time.Time) time.Time {
	sentTimestamp, ok := msg.Attributes[sqs.MessageSystemAttributeNameSentTimestamp]
	if !ok {
		ss.log.Warn("Failed to extract SentTimestamp from SQS message attributes")
		return timePulled
	}

	millis, err := strconv.ParseInt(aws.StringValue(sentTimestamp), 10, 64)
	if err != nil {
		err = errors.Wrap(err, "Failed to parse SentTimestamp from SQS message")
		ss.log.WithFields(log.Fields{"error": err}).Error(err)
		return timePulled
	}
	return time.UnixMilli(millis).UTC()
}

// Stop will halt the reader processing more events
func (ss *sqsSource) Stop() {
	ss.log.Warn("Cancelling SQS receive ...")
	ss.exitSignal <- struct{}{}
}

// GetID returns the identifier for this source
func (ss *sqsSource) GetID() string {
	return fmt.Sprintf("sqs:%s:%s", ss.region, ss.queueName)
}
