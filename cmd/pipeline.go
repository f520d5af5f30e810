// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/config"
	"github.com/snowplow-devops/aws-blocks/pkg/failure/failureiface"
	"github.com/snowplow-devops/aws-blocks/pkg/health"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/observer"
	"github.com/snowplow-devops/aws-blocks/pkg/retry"
	"github.com/snowplow-devops/aws-blocks/pkg/target/targetiface"
)

// Dispatcher invokes the blocks named by a batch of messages
type Dispatcher interface {
	Dispatch(ctx context.Context, messages []*models.Message) *models.DispatchResult
}

// SourceWriteFunc builds the function which wraps the different objects together to handle:
//
// 1. Invoking the block named by every message
// 2. Sending the output events to the target
// 3. Observing results
// 4. Sending failed invocations and oversized outputs to the failure target
//
// All with retry logic baked in to remove any of this handling from the implementations.
// When the target still fails after the last attempt the process is marked
// unhealthy and the error is sent on alertChan, which may be nil. Block
// invocations are bound to ctx.
func SourceWriteFunc(ctx context.Context, d Dispatcher, t targetiface.Target, ft failureiface.Failure, o *observer.Observer, retryCfg *config.RetryConfig, alertChan chan error) func(messages []*models.Message) error {
	attempts := retryCfg.MaxAttempts
	delay := time.Duration(retryCfg.DelayMs) * time.Millisecond

	return func(messages []*models.Message) error {
		copyOriginalData(messages)

		dispatched := d.Dispatch(ctx, messages)
		o.Dispatched(dispatched)

		invalid := dispatched.Invalid
		var oversized []*models.Message

		// Send output buffer
		messagesToSend := dispatched.Output
		if len(messagesToSend) > 0 {
			err := retry.Exponential(attempts, delay, "target.Write", func() error {
				res, err := t.Write(messagesToSend)
				if res == nil {
					return err
				}

				o.TargetWrite(res)
				messagesToSend = res.Failed
				oversized = append(oversized, res.Oversized...)
				invalid = append(invalid, res.Invalid...)
				return err
			})
			if err != nil {
				health.SetUnhealthy()
				if alertChan != nil {
					alertChan <- err
				}
				return err
			}
			if !health.IsHealthy() {
				health.SetHealthy()
				if alertChan != nil {
					alertChan <- nil
				}
			}
		}

		// Send oversized message buffer
		messagesToSend = oversized
		if len(messagesToSend) > 0 {
			err := retry.Exponential(attempts, delay, "failureTarget.WriteOversized", func() error {
				res, err := ft.WriteOversized(t.MaximumAllowedMessageSizeBytes(), messagesToSend)
				if res == nil {
					return err
				}
				if len(res.Oversized) != 0 || len(res.Invalid) != 0 {
					log.Fatal("Oversized message conversion to failure events resulted in new oversized / invalid messages")
				}

				o.TargetWriteOversized(res)
				messagesToSend = res.Failed
				return err
			})
			if err != nil {
				return err
			}
		}

		// Send invalid message buffer
		messagesToSend = invalid
		if len(messagesToSend) > 0 {
			err := retry.Exponential(attempts, delay, "failureTarget.WriteInvalid", func() error {
				res, err := ft.WriteInvalid(messagesToSend)
				if res == nil {
					return err
				}
				if len(res.Oversized) != 0 || len(res.Invalid) != 0 {
					log.Fatal("Invalid message conversion to failure events resulted in new invalid / oversized messages")
				}

				o.TargetWriteInvalid(res)
				messagesToSend = res.Failed
				return err
			})
			if err != nil {
				return err
			}
		}

		return nil
	}
}

// copyOriginalData keeps the payload pulled from the source apart from the one
// sent onwards
func copyOriginalData(messages []*models.Message) {
	for _, msg := range messages {
		buffer := make([]byte, len(msg.Data))
		copy(buffer, msg.Data)
		msg.OriginalData = buffer
	}
}
