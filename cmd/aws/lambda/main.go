// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package main

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/snowplow-devops/aws-blocks/cmd"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

func main() {
	lambda.Start(HandleRequest)
}

// HandleRequest invokes the blocks named by a batch of SQS records. Records
// are deleted by Lambda once the handler returns without error.
func HandleRequest(ctx context.Context, event events.SQSEvent) error {
	return cmd.ServerlessRequestHandler(ctx, messagesFromRecords(event.Records))
}

func messagesFromRecords(records []events.SQSMessage) []*models.Message {
	now := time.Now().UTC()

	messages := make([]*models.Message, len(records))
	for i, record := range records {
		timeCreated := now
		if sent, err := strconv.ParseInt(record.Attributes["SentTimestamp"], 10, 64); err == nil {
			timeCreated = time.UnixMilli(sent).UTC()
		}

		messages[i] = &models.Message{
			Data:         []byte(record.Body),
			PartitionKey: record.MessageId,
			TimeCreated:  timeCreated,
			TimePulled:   now,
		}
	}
	return messages
}
