// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package dispatch

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws/client"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
	"github.com/snowplow-devops/aws-blocks/pkg/block"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// SessionFunc builds the client provider a block invocation will use
type SessionFunc func(s *awsclient.Settings) (client.ConfigProvider, error)

// DefaultSessionFunc builds a fresh AWS session for every invocation
func DefaultSessionFunc(s *awsclient.Settings) (client.ConfigProvider, error) {
	return awsclient.NewSession(s)
}

// Dispatcher routes trigger events to the blocks they name
type Dispatcher struct {
	registry    *block.Registry
	defaults    awsclient.Settings
	timeout     time.Duration
	sessionFunc SessionFunc

	log *log.Entry
}

// NewDispatcher creates a dispatcher over the registry. The defaults are
// overridden per event by the settings found in the event context; a zero
// timeout leaves invocations bounded only by the caller's context.
func NewDispatcher(registry *block.Registry, defaults awsclient.Settings, timeout time.Duration) *Dispatcher {
	return NewDispatcherWithSessionFunc(registry, defaults, timeout, DefaultSessionFunc)
}

// NewDispatcherWithSessionFunc allows the session to be swapped out
func NewDispatcherWithSessionFunc(registry *block.Registry, defaults awsclient.Settings, timeout time.Duration, sessionFunc SessionFunc) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		defaults:    defaults,
		timeout:     timeout,
		sessionFunc: sessionFunc,
		log:         log.WithFields(log.Fields{"name": "Dispatcher"}),
	}
}

// Dispatch invokes the block named by every message, one at a time. Messages
// that could not be invoked are returned as invalid with their error set.
func (d *Dispatcher) Dispatch(ctx context.Context, messages []*models.Message) *models.DispatchResult {
	var output []*models.Message
	var invalid []*models.Message
	var latencies []time.Duration

	for _, msg := range messages {
		event, err := models.ParseEvent(msg.Data)
		if err != nil {
			msg.SetError(err)
			invalid = append(invalid, msg)
			continue
		}

		res, latency, err := d.invoke(ctx, event)
		if latency > 0 {
			latencies = append(latencies, latency)
		}
		if err != nil {
			d.log.WithFields(log.Fields{"event_id": event.ID, "block": event.Block, "error": err}).Warn("Block invocation failed")
			msg.SetError(err)
			invalid = append(invalid, msg)
			continue
		}

		data, err := json.Marshal(res)
		if err != nil {
			msg.SetError(&models.InvocationError{EventID: event.ID, Block: event.Block, Err: errors.Wrap(err, "Failed to encode output event")})
			invalid = append(invalid, msg)
			continue
		}

		output = append(output, &models.Message{
			PartitionKey:   event.ID,
			OriginalData:   msg.OriginalData,
			Data:           data,
			TimeCreated:    msg.TimeCreated,
			TimePulled:     msg.TimePulled,
			TimeDispatched: time.Now().UTC(),
			AckFunc:        msg.AckFunc,
		})
	}

	return models.NewDispatchResult(output, invalid, latencies)
}

// InvokeEvent resolves the block and settings for one event and invokes it
func (d *Dispatcher) InvokeEvent(ctx context.Context, event *models.Event) (*models.OutputEvent, error) {
	res, _, err := d.invoke(ctx, event)
	return res, err
}

// invoke also returns the time spent inside the block, zero if it was never called
func (d *Dispatcher) invoke(ctx context.Context, event *models.Event) (*models.OutputEvent, time.Duration, error) {
	fail := func(err error) error {
		return &models.InvocationError{EventID: event.ID, Block: event.Block, Err: err}
	}

	b, err := d.registry.Get(event.Block)
	if err != nil {
		return nil, 0, fail(err)
	}

	override, err := awsclient.FromContext(event.Context)
	if err != nil {
		return nil, 0, fail(err)
	}
	settings := d.defaults.Merge(override)

	provider, err := d.sessionFunc(&settings)
	if err != nil {
		return nil, 0, fail(err)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.log.WithFields(log.Fields{"event_id": event.ID, "block": event.Block, "region": settings.Region}).Debug("Invoking block ...")

	invokedAt := time.Now().UTC()
	output, err := b.Invoke(ctx, provider, event.Input)
	duration := time.Since(invokedAt)
	if err != nil {
		return nil, duration, fail(err)
	}

	return models.NewOutputEvent(event, invokedAt, duration, output), duration, nil
}
