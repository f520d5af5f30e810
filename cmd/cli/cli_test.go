// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/pkg/block"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

func TestEnumValue(t *testing.T) {
	assert := assert.New(t)

	e := &EnumValue{Enum: services}
	assert.Equal("", e.String())

	assert.Nil(e.Set("rds"))
	assert.Equal("rds", e.String())

	err := e.Set("ec2")
	if assert.NotNil(err) {
		assert.Equal("allowed values are sqs, cloudfront, rds", err.Error())
	}
	assert.Equal("rds", e.String())
}

func TestListBlocks(t *testing.T) {
	assert := assert.New(t)

	registry := block.NewDefaultRegistry()
	assert.Nil(registry.Enable([]string{"sqs.*Queue*", "rds.Describe*"}))

	var out bytes.Buffer
	assert.Nil(listBlocks(&out, registry, "sqs"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(lines, "sqs.GetQueueUrl")
	assert.Contains(lines, "sqs.ListQueues")
	assert.NotContains(lines, "sqs.SendMessage")
	for _, line := range lines {
		assert.True(strings.HasPrefix(line, "sqs."))
	}

	out.Reset()
	assert.Nil(listBlocks(&out, registry, "cloudfront"))
	assert.Empty(out.String())
}

func TestDescribeBlock(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	assert.Nil(describeBlock(&out, block.NewDefaultRegistry(), "sqs.SendMessage"))

	description := map[string]interface{}{}
	assert.Nil(json.Unmarshal(out.Bytes(), &description))
	assert.Equal("sqs.SendMessage", description["id"])
	assert.Equal("sqs", description["service"])
	assert.Equal("SendMessage", description["operation"])
	assert.NotNil(description["input"])
	assert.NotNil(description["output"])
	assert.Contains(out.String(), "QueueUrl")
	assert.Contains(out.String(), "MessageBody")
}

func TestDescribeBlock_Unknown(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	err := describeBlock(&out, block.NewDefaultRegistry(), "sqs.Teleport")
	if assert.NotNil(err) {
		assert.True(errors.Is(err, block.ErrUnknownBlock))
	}
	assert.Empty(out.String())
}

type stubInvoker struct {
	output []byte
	err    error
}

func (si *stubInvoker) InvokeEvent(ctx context.Context, event *models.Event) (*models.OutputEvent, error) {
	if si.err != nil {
		return nil, &models.InvocationError{EventID: event.ID, Block: event.Block, Err: si.err}
	}
	return models.NewOutputEvent(event, time.Now().UTC(), 5*time.Millisecond, si.output), nil
}

func TestInvokeBlock(t *testing.T) {
	assert := assert.New(t)

	event := &models.Event{
		ID:    "e-1",
		Block: "sqs.GetQueueUrl",
		Input: json.RawMessage(`{"QueueName":"q"}`),
	}

	var out bytes.Buffer
	err := invokeBlock(context.Background(), &out, &stubInvoker{output: []byte(`{"QueueUrl":"http://q"}`)}, event)
	assert.Nil(err)

	res := &models.OutputEvent{}
	assert.Nil(json.Unmarshal(out.Bytes(), res))
	assert.Equal("e-1", res.ID)
	assert.Equal("sqs.GetQueueUrl", res.Block)
	assert.JSONEq(`{"QueueUrl":"http://q"}`, string(res.Output))
}

func TestInvokeBlock_Failure(t *testing.T) {
	assert := assert.New(t)

	event := &models.Event{
		ID:    "e-2",
		Block: "rds.DescribeDBInstances",
		Input: json.RawMessage(`{}`),
	}
	awsErr := awserr.New("AccessDenied", "not allowed", nil)

	var out bytes.Buffer
	err := invokeBlock(context.Background(), &out, &stubInvoker{err: awsErr}, event)
	assert.NotNil(err)

	fe := &models.FailureEvent{}
	assert.Nil(json.Unmarshal(out.Bytes(), fe))
	assert.Equal("e-2", fe.ID)
	assert.Equal("rds.DescribeDBInstances", fe.Block)
	assert.Equal("AccessDenied", fe.Error.Code)
	assert.Contains(fe.Payload, `"block":"rds.DescribeDBInstances"`)
}
