// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
)

var (
	// AWSLocalstackEndpoint is the default endpoint localstack runs under
	AWSLocalstackEndpoint = "http://localhost:4566"

	// AWSLocalstackRegion is the default region we are using for testing
	AWSLocalstackRegion = "us-east-1"
)

// GetAWSLocalstackSettings returns static settings pointing at localstack
func GetAWSLocalstackSettings() *awsclient.Settings {
	return &awsclient.Settings{
		Region:          AWSLocalstackRegion,
		Endpoint:        AWSLocalstackEndpoint,
		AccessKeyID:     "foo",
		SecretAccessKey: "var",
	}
}

// GetAWSLocalstackSession will return an AWS session ready to interact with localstack.
// Building the session does not reach out to the network.
func GetAWSLocalstackSession() *session.Session {
	sess, err := awsclient.NewSession(GetAWSLocalstackSettings())
	if err != nil {
		panic(err)
	}
	return sess
}

// GetAWSLocalstackContext returns the event context equivalent of the localstack settings
func GetAWSLocalstackContext() map[string]interface{} {
	return map[string]interface{}{
		"region":            AWSLocalstackRegion,
		"endpoint":          AWSLocalstackEndpoint,
		"access_key_id":     "foo",
		"secret_access_key": "var",
	}
}

// --- Kinesis Testing

// GetAWSLocalstackKinesisClient returns a Kinesis client
func GetAWSLocalstackKinesisClient() kinesisiface.KinesisAPI {
	return kinesis.New(GetAWSLocalstackSession())
}

// CreateAWSLocalstackKinesisStream creates a new Kinesis stream and polls until
// the stream is in an ACTIVE state
func CreateAWSLocalstackKinesisStream(client kinesisiface.KinesisAPI, streamName string) error {
	_, err := client.CreateStream(&kinesis.CreateStreamInput{
		StreamName: aws.String(streamName),
		ShardCount: aws.Int64(1),
	})
	if err != nil {
		return err
	}

	return client.WaitUntilStreamExists(&kinesis.DescribeStreamInput{
		StreamName: aws.String(streamName),
	})
}

// DeleteAWSLocalstackKinesisStream deletes an existing Kinesis stream
func DeleteAWSLocalstackKinesisStream(client kinesisiface.KinesisAPI, streamName string) (*kinesis.DeleteStreamOutput, error) {
	return client.DeleteStream(&kinesis.DeleteStreamInput{
		StreamName: aws.String(streamName),
	})
}

// --- SQS Testing

// GetAWSLocalstackSQSClient returns an SQS client
func GetAWSLocalstackSQSClient() sqsiface.SQSAPI {
	return sqs.New(GetAWSLocalstackSession())
}

// SetupAWSLocalstackSQSQueueWithMessages creates a new SQS queue and stubs it with a set of messages
func SetupAWSLocalstackSQSQueueWithMessages(client sqsiface.SQSAPI, queueName string, messageCount int, messageBody string) *string {
	res, err := CreateAWSLocalstackSQSQueue(client, queueName)
	if err != nil {
		panic(err)
	}

	for i := 0; i < messageCount; i++ {
		if _, err := client.SendMessage(&sqs.SendMessageInput{
			MessageBody: aws.String(messageBody),
			QueueUrl:    res.QueueUrl,
		}); err != nil {
			panic(err)
		}
	}

	return res.QueueUrl
}

// CreateAWSLocalstackSQSQueue creates a new SQS queue
func CreateAWSLocalstackSQSQueue(client sqsiface.SQSAPI, queueName string) (*sqs.CreateQueueOutput, error) {
	return client.CreateQueue(&sqs.CreateQueueInput{
		QueueName: aws.String(queueName),
	})
}

// DeleteAWSLocalstackSQSQueue deletes an existing SQS queue
func DeleteAWSLocalstackSQSQueue(client sqsiface.SQSAPI, queueURL *string) (*sqs.DeleteQueueOutput, error) {
	return client.DeleteQueue(&sqs.DeleteQueueInput{
		QueueUrl: queueURL,
	})
}
