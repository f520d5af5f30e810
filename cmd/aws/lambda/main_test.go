// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package main

import (
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestMessagesFromRecords(t *testing.T) {
	assert := assert.New(t)

	records := []events.SQSMessage{
		{
			MessageId:  "m-1",
			Body:       `{"id":"e-1","block":"sqs.ListQueues"}`,
			Attributes: map[string]string{"SentTimestamp": "1650000000000"},
		},
		{
			MessageId: "m-2",
			Body:      `{"id":"e-2","block":"rds.DescribeDBInstances"}`,
		},
	}

	messages := messagesFromRecords(records)
	if assert.Equal(2, len(messages)) {
		assert.Equal("m-1", messages[0].PartitionKey)
		assert.Equal(`{"id":"e-1","block":"sqs.ListQueues"}`, string(messages[0].Data))
		assert.Equal(time.UnixMilli(1650000000000).UTC(), messages[0].TimeCreated)
		assert.Nil(messages[0].AckFunc)

		assert.Equal("m-2", messages[1].PartitionKey)
		assert.Equal(messages[1].TimePulled, messages[1].TimeCreated)
	}
}

func TestMessagesFromRecords_Empty(t *testing.T) {
	assert := assert.New(t)

	assert.Empty(messagesFromRecords(nil))
}
