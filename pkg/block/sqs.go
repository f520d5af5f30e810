// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"

	"github.com/snowplow-devops/aws-blocks/pkg/block/blockiface"
)

// NewSQSClient builds the SQS client used by the default registry
func NewSQSClient(p client.ConfigProvider) sqsiface.SQSAPI {
	return sqs.New(p)
}

// SQSBlocks returns a block for every supported SQS operation
func SQSBlocks(newClient func(client.ConfigProvider) sqsiface.SQSAPI) []blockiface.Block {
	const service = "sqs"

	return []blockiface.Block{
		newOperation(service, "AddPermission", newClient, sqsiface.SQSAPI.AddPermissionWithContext),
		newOperation(service, "ChangeMessageVisibility", newClient, sqsiface.SQSAPI.ChangeMessageVisibilityWithContext),
		newOperation(service, "ChangeMessageVisibilityBatch", newClient, sqsiface.SQSAPI.ChangeMessageVisibilityBatchWithContext),
		newOperation(service, "CreateQueue", newClient, sqsiface.SQSAPI.CreateQueueWithContext),
		newOperation(service, "DeleteMessage", newClient, sqsiface.SQSAPI.DeleteMessageWithContext),
		newOperation(service, "DeleteMessageBatch", newClient, sqsiface.SQSAPI.DeleteMessageBatchWithContext),
		newOperation(service, "DeleteQueue", newClient, sqsiface.SQSAPI.DeleteQueueWithContext),
		newOperation(service, "GetQueueAttributes", newClient, sqsiface.SQSAPI.GetQueueAttributesWithContext),
		newOperation(service, "GetQueueUrl", newClient, sqsiface.SQSAPI.GetQueueUrlWithContext),
		newOperation(service, "ListDeadLetterSourceQueues", newClient, sqsiface.SQSAPI.ListDeadLetterSourceQueuesWithContext),
		newOperation(service, "ListQueueTags", newClient, sqsiface.SQSAPI.ListQueueTagsWithContext),
		newOperation(service, "ListQueues", newClient, sqsiface.SQSAPI.ListQueuesWithContext),
		newOperation(service, "PurgeQueue", newClient, sqsiface.SQSAPI.PurgeQueueWithContext),
		newOperation(service, "ReceiveMessage", newClient, sqsiface.SQSAPI.ReceiveMessageWithContext),
		newOperation(service, "RemovePermission", newClient, sqsiface.SQSAPI.RemovePermissionWithContext),
		newOperation(service, "SendMessage", newClient, sqsiface.SQSAPI.SendMessageWithContext),
		newOperation(service, "SendMessageBatch", newClient, sqsiface.SQSAPI.SendMessageBatchWithContext),
		newOperation(service, "SetQueueAttributes", newClient, sqsiface.SQSAPI.SetQueueAttributesWithContext),
		newOperation(service, "TagQueue", newClient, sqsiface.SQSAPI.TagQueueWithContext),
		newOperation(service, "UntagQueue", newClient, sqsiface.SQSAPI.UntagQueueWithContext),
	}
}
