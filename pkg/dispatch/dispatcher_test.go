// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
	"github.com/snowplow-devops/aws-blocks/pkg/block"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/testutil"
)

type mockSQS struct {
	sqsiface.SQSAPI

	getQueueURLCalls int
	deadline         bool
}

func (m *mockSQS) GetQueueUrlWithContext(ctx aws.Context, in *sqs.GetQueueUrlInput, _ ...request.Option) (*sqs.GetQueueUrlOutput, error) {
	m.getQueueURLCalls++
	_, m.deadline = ctx.Deadline()

	if aws.StringValue(in.QueueName) == "missing" {
		return nil, awserr.NewRequestFailure(awserr.New(sqs.ErrCodeQueueDoesNotExist, "The specified queue does not exist", nil), 400, "req-1")
	}
	return &sqs.GetQueueUrlOutput{QueueUrl: aws.String("https://sqs.us-east-1.amazonaws.com/000000000000/" + aws.StringValue(in.QueueName))}, nil
}

type sessionRecorder struct {
	settings []awsclient.Settings
	err      error
}

func (r *sessionRecorder) sessionFunc(s *awsclient.Settings) (client.ConfigProvider, error) {
	r.settings = append(r.settings, *s)
	if r.err != nil {
		return nil, r.err
	}
	return testutil.GetAWSLocalstackSession(), nil
}

func newTestDispatcher(t *testing.T, m *mockSQS, rec *sessionRecorder, timeout time.Duration) *Dispatcher {
	registry, err := block.NewRegistry(block.SQSBlocks(func(client.ConfigProvider) sqsiface.SQSAPI { return m })...)
	assert.Nil(t, err)
	assert.Nil(t, registry.Enable([]string{"sqs.Get*"}))

	return NewDispatcherWithSessionFunc(registry, awsclient.Settings{Region: "us-east-1"}, timeout, rec.sessionFunc)
}

func TestDispatch(t *testing.T) {
	assert := assert.New(t)

	m := &mockSQS{}
	rec := &sessionRecorder{}
	d := newTestDispatcher(t, m, rec, 0)

	acked := 0
	ack := func() { acked++ }
	timeNow := time.Now().UTC()

	messages := []*models.Message{
		{
			Data:         []byte(`{"id":"e1","block":"sqs.GetQueueUrl","context":{"region":"eu-west-1","tenant":"acme"},"input":{"QueueName":"orders"}}`),
			PartitionKey: "p1",
			TimeCreated:  timeNow,
			TimePulled:   timeNow,
			AckFunc:      ack,
		},
		{
			Data:         []byte(`{"id":"e2","block":"sqs.GetQueueUrl","input":{"QueueName":"missing"}}`),
			PartitionKey: "p2",
		},
		{
			Data:         []byte(`{"id":"e3","block":"sqs.DeleteQueue","input":{"QueueUrl":"q"}}`),
			PartitionKey: "p3",
		},
		{
			Data:         []byte(`{"id":"e4","block":"sqs.Nope"}`),
			PartitionKey: "p4",
		},
		{
			Data:         []byte(`not-an-event`),
			PartitionKey: "p5",
		},
		{
			Data:         []byte(`{"id":"e6","block":"sqs.GetQueueUrl","input":{}}`),
			PartitionKey: "p6",
		},
	}

	res := d.Dispatch(context.Background(), messages)

	assert.Equal(int64(1), res.OutputCount)
	assert.Equal(int64(5), res.InvalidCount)
	assert.Equal(int64(6), res.Total())
	assert.Equal(2, m.getQueueURLCalls)
	assert.False(m.deadline)

	// Context settings override the defaults, unrelated keys are ignored
	assert.Equal("eu-west-1", rec.settings[0].Region)
	assert.Equal("us-east-1", rec.settings[1].Region)

	out := res.Output[0]
	assert.Equal("e1", out.PartitionKey)
	assert.Equal(timeNow, out.TimeCreated)
	assert.False(out.TimeDispatched.IsZero())
	out.AckFunc()
	assert.Equal(1, acked)

	var oe models.OutputEvent
	assert.Nil(json.Unmarshal(out.Data, &oe))
	assert.Equal("e1", oe.ID)
	assert.Equal("sqs.GetQueueUrl", oe.Block)
	assert.JSONEq(`{"QueueUrl":"https://sqs.us-east-1.amazonaws.com/000000000000/orders"}`, string(oe.Output))

	// AWS error
	fe := models.NewFailureEvent(res.Invalid[0], time.Now().UTC())
	assert.Equal("e2", fe.ID)
	assert.Equal(sqs.ErrCodeQueueDoesNotExist, fe.Error.Code)
	assert.Equal(400, fe.Error.StatusCode)
	assert.Equal("req-1", fe.Error.RequestID)

	// Disabled block
	assert.Equal(block.ErrBlockDisabled, errors.Cause(res.Invalid[1].GetError()))

	// Unknown block
	assert.Equal(block.ErrUnknownBlock, errors.Cause(res.Invalid[2].GetError()))

	// Unparseable event
	assert.Contains(res.Invalid[3].GetError().Error(), "Failed to parse event")

	// Request validation fails before the call
	fe = models.NewFailureEvent(res.Invalid[4], time.Now().UTC())
	assert.Equal("e6", fe.ID)
	assert.Equal("InvalidParameter", fe.Error.Code)
}

func TestDispatch_SessionFailure(t *testing.T) {
	assert := assert.New(t)

	m := &mockSQS{}
	rec := &sessionRecorder{err: errors.New("Invalid AWS settings")}
	d := newTestDispatcher(t, m, rec, 0)

	res := d.Dispatch(context.Background(), []*models.Message{
		{Data: []byte(`{"id":"e1","block":"sqs.GetQueueUrl","input":{"QueueName":"orders"}}`)},
	})

	assert.Equal(int64(0), res.OutputCount)
	assert.Equal(int64(1), res.InvalidCount)
	assert.Equal(0, m.getQueueURLCalls)
	assert.Equal(time.Duration(0), res.MaxInvokeLatency)
	assert.Equal("Invalid AWS settings", res.Invalid[0].GetError().Error())
}

func TestInvokeEvent_Timeout(t *testing.T) {
	assert := assert.New(t)

	m := &mockSQS{}
	d := newTestDispatcher(t, m, &sessionRecorder{}, 5*time.Second)

	oe, err := d.InvokeEvent(context.Background(), &models.Event{
		ID:    "abc",
		Block: "sqs.GetQueueUrl",
		Input: []byte(`{"QueueName":"orders"}`),
	})
	assert.Nil(err)
	assert.True(m.deadline)
	assert.Equal("abc", oe.ID)
	assert.False(oe.InvokedAt.IsZero())
}

func TestDispatch_Localstack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	assert := assert.New(t)

	queueName := "dispatch-" + testutil.GenRandomString(8)
	sqsClient := testutil.GetAWSLocalstackSQSClient()
	created, err := testutil.CreateAWSLocalstackSQSQueue(sqsClient, queueName)
	if err != nil {
		t.Fatal(err)
	}
	defer testutil.DeleteAWSLocalstackSQSQueue(sqsClient, created.QueueUrl)

	// Settings come from the event context only
	d := NewDispatcher(block.NewDefaultRegistry(), awsclient.Settings{}, 10*time.Second)

	event, err := json.Marshal(&models.Event{
		ID:      "e-localstack",
		Block:   "sqs.GetQueueUrl",
		Context: testutil.GetAWSLocalstackContext(),
		Input:   []byte(`{"QueueName":"` + queueName + `"}`),
	})
	assert.Nil(err)

	res := d.Dispatch(context.Background(), []*models.Message{{Data: event}})
	assert.Empty(res.Invalid)
	if assert.Equal(1, len(res.Output)) {
		oe := &models.OutputEvent{}
		assert.Nil(json.Unmarshal(res.Output[0].Data, oe))
		assert.Equal("e-localstack", oe.ID)
		assert.Contains(string(oe.Output), queueName)
	}
}
