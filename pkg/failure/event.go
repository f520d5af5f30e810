// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package failure

import (
	"fmt"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/target/targetiface"
)

// EventFailure holds a target for emitting failure events describing why a
// message could not be invoked or delivered
type EventFailure struct {
	target targetiface.Target
	log    *log.Entry
}

// NewEventFailure will create a new client for handling failed messages by
// converting them into failure events and pushing them to a target
func NewEventFailure(target targetiface.Target) (*EventFailure, error) {
	return &EventFailure{
		target: target,
		log:    log.WithFields(log.Fields{"failed": target.GetID()}),
	}, nil
}

// WriteInvalid converts invalid messages into failure events and pushes them to the target
func (ef *EventFailure) WriteInvalid(invalid []*models.Message) (*models.TargetWriteResult, error) {
	now := time.Now().UTC()

	var transformed []*models.Message
	for _, msg := range invalid {
		fe := models.NewFailureEvent(msg, now)

		data, err := ef.compact(fe)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to transform invalid message to failure event JSON")
		}
		transformed = append(transformed, withData(msg, data))
	}

	return ef.target.Write(transformed)
}

// WriteOversized converts outputs which were too large for the target into failure
// events and pushes them to the failure target
func (ef *EventFailure) WriteOversized(maximumAllowedSizeBytes int, oversized []*models.Message) (*models.TargetWriteResult, error) {
	now := time.Now().UTC()

	var transformed []*models.Message
	for _, msg := range oversized {
		oErr := fmt.Errorf("Output of %d bytes exceeds the %d bytes allowed by the target", len(msg.Data), maximumAllowedSizeBytes)

		// The trigger of a dispatched output is a valid event
		if e, err := models.ParseEvent(msg.OriginalData); err == nil {
			msg.SetError(&models.InvocationError{EventID: msg.PartitionKey, Block: e.Block, Err: oErr})
		} else {
			msg.SetError(oErr)
		}

		fe := models.NewFailureEvent(msg, now)

		data, err := ef.compact(fe)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to transform oversized message to failure event JSON")
		}
		transformed = append(transformed, withData(msg, data))
	}

	return ef.target.Write(transformed)
}

// compact serialises the failure event, truncating the payload until the
// encoded event fits into the target
func (ef *EventFailure) compact(fe *models.FailureEvent) ([]byte, error) {
	limit := ef.target.MaximumAllowedMessageSizeBytes()
	originalSize := len(fe.Payload)

	for {
		data, err := json.Marshal(fe)
		if err != nil {
			return nil, err
		}
		overshoot := len(data) - limit
		if overshoot <= 0 {
			if len(fe.Payload) < originalSize {
				ef.log.Warnf("Truncated failure payload of %d bytes to %d bytes", originalSize, len(fe.Payload))
			}
			return data, nil
		}
		if fe.Payload == "" {
			return nil, fmt.Errorf("Failure event of %d bytes does not fit the %d bytes allowed by the target", len(data), limit)
		}

		// Escaping inflates the payload, so the cut is scaled by its encoded size
		encoded, err := json.Marshal(fe.Payload)
		if err != nil {
			return nil, err
		}
		keep := len(encoded) - overshoot
		if keep < 0 {
			keep = 0
		}
		fe.Payload = truncateUTF8(fe.Payload, len(fe.Payload)*keep/len(encoded))
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func withData(msg *models.Message, data []byte) *models.Message {
	tMsg := *msg
	tMsg.Data = data
	return &tMsg
}

// Open manages opening the underlying target
func (ef *EventFailure) Open() {
	ef.target.Open()
}

// Close manages closing the underlying target
func (ef *EventFailure) Close() {
	ef.target.Close()
}

// GetID returns the identifier for this target
func (ef *EventFailure) GetID() string {
	return ef.target.GetID()
}
