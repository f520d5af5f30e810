// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/twinj/uuid"
)

// Event is a block trigger as delivered by a source.
//
// Context carries whatever the hosting platform attaches to the trigger; the
// AWS settings (region, endpoint, credentials, role) are read from it and any
// other key is ignored.
type Event struct {
	ID      string                 `json:"id"`
	Block   string                 `json:"block"`
	Context map[string]interface{} `json:"context,omitempty"`
	Input   json.RawMessage        `json:"input,omitempty"`
}

// OutputEvent republishes the raw response of a block invocation
type OutputEvent struct {
	ID         string          `json:"id"`
	Block      string          `json:"block"`
	InvokedAt  time.Time       `json:"invoked_at"`
	DurationMs int64           `json:"duration_ms"`
	Output     json.RawMessage `json:"output"`
}

// FailureEvent describes an invocation which could not be completed
type FailureEvent struct {
	ID       string        `json:"id,omitempty"`
	Block    string        `json:"block,omitempty"`
	FailedAt time.Time     `json:"failed_at"`
	Error    FailureDetail `json:"error"`
	Payload  string        `json:"payload"`
}

// FailureDetail holds the error message along with the AWS error
// metadata when the error came back from the service
type FailureDetail struct {
	Message    string `json:"message"`
	Code       string `json:"code,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// InvocationError decorates an error with the event and block it belongs to
type InvocationError struct {
	EventID string
	Block   string
	Err     error
}

func (e *InvocationError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error
func (e *InvocationError) Cause() error {
	return e.Err
}

// ParseEvent decodes a trigger event from a message payload. An event
// without an id is given a random one.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrap(err, "Failed to parse event")
	}
	if e.Block == "" {
		return nil, errors.New("Event is missing the block to invoke")
	}
	if e.ID == "" {
		e.ID = uuid.NewV4().String()
	}
	return &e, nil
}

// NewOutputEvent builds the output event for a completed invocation
func NewOutputEvent(e *Event, invokedAt time.Time, duration time.Duration, output []byte) *OutputEvent {
	return &OutputEvent{
		ID:         e.ID,
		Block:      e.Block,
		InvokedAt:  invokedAt,
		DurationMs: duration.Milliseconds(),
		Output:     output,
	}
}

// NewFailureEvent builds a failure event from an invalid message
func NewFailureEvent(msg *Message, failedAt time.Time) *FailureEvent {
	payload := msg.OriginalData
	if payload == nil {
		payload = msg.Data
	}

	fe := &FailureEvent{
		FailedAt: failedAt,
		Payload:  string(payload),
	}

	err := msg.GetError()
	if err == nil {
		fe.Error = FailureDetail{Message: "unknown error"}
		return fe
	}

	var ie *InvocationError
	if errors.As(err, &ie) {
		fe.ID = ie.EventID
		fe.Block = ie.Block
	}
	fe.Error = NewFailureDetail(err)

	return fe
}

// NewFailureDetail extracts the AWS error code, status and request id
// from an error when available
func NewFailureDetail(err error) FailureDetail {
	d := FailureDetail{
		Message: err.Error(),
	}

	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return d
	}
	d.Code = aerr.Code()

	if reqErr, ok := aerr.(awserr.RequestFailure); ok {
		d.StatusCode = reqErr.StatusCode()
		d.RequestID = reqErr.RequestID()
	}
	return d
}
