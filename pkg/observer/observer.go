// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package observer

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/statsreceiver/statsreceiveriface"
)

// Observer holds the channels and settings for aggregating telemetry from block
// invocations and target writes and emitting them to downstream destinations
type Observer struct {
	statsClient              statsreceiveriface.StatsReceiver
	exitSignal               chan struct{}
	stopDone                 chan struct{}
	dispatchChan             chan *models.DispatchResult
	targetWriteChan          chan *models.TargetWriteResult
	targetWriteOversizedChan chan *models.TargetWriteResult
	targetWriteInvalidChan   chan *models.TargetWriteResult
	timeout                  time.Duration
	reportInterval           time.Duration
	isRunning                bool

	log *log.Entry
}

// New builds a new observer to be used to gather telemetry
// about block invocations and target writes
func New(statsClient statsreceiveriface.StatsReceiver, timeout time.Duration, reportInterval time.Duration) *Observer {
	return &Observer{
		statsClient:              statsClient,
		exitSignal:               make(chan struct{}),
		stopDone:                 make(chan struct{}),
		dispatchChan:             make(chan *models.DispatchResult, 1000),
		targetWriteChan:          make(chan *models.TargetWriteResult, 1000),
		targetWriteOversizedChan: make(chan *models.TargetWriteResult, 1000),
		targetWriteInvalidChan:   make(chan *models.TargetWriteResult, 1000),
		timeout:                  timeout,
		reportInterval:           reportInterval,
		log:                      log.WithFields(log.Fields{"name": "Observer"}),
	}
}

// Start launches a goroutine which processes results from invocations and target writes
func (o *Observer) Start() {
	if o.isRunning {
		o.log.Warn("Observer is already running")
		return
	}
	o.isRunning = true

	go func() {
		reportTime := time.Now().UTC().Add(o.reportInterval)
		buffer := models.ObserverBuffer{}

	ObserverLoop:
		for {
			select {
			case <-o.exitSignal:
				o.log.Warn("Received exit signal, shutting down Observer ...")

				o.drain(&buffer)
				o.report(&buffer)

				o.isRunning = false
				break ObserverLoop
			case res := <-o.dispatchChan:
				buffer.AppendDispatch(res)
			case res := <-o.targetWriteChan:
				buffer.AppendWrite(res)
			case res := <-o.targetWriteOversizedChan:
				buffer.AppendWriteOversized(res)
			case res := <-o.targetWriteInvalidChan:
				buffer.AppendWriteInvalid(res)
			case <-time.After(o.timeout):
				o.log.Debugf("Observer timed out after (%v) waiting for result", o.timeout)
			}

			if time.Now().UTC().After(reportTime) {
				o.report(&buffer)

				reportTime = time.Now().UTC().Add(o.reportInterval)
				buffer = models.ObserverBuffer{}
			}
		}
		o.stopDone <- struct{}{}
	}()
}

// drain empties whatever results are still queued
func (o *Observer) drain(buffer *models.ObserverBuffer) {
	for {
		select {
		case res := <-o.dispatchChan:
			buffer.AppendDispatch(res)
		case res := <-o.targetWriteChan:
			buffer.AppendWrite(res)
		case res := <-o.targetWriteOversizedChan:
			buffer.AppendWriteOversized(res)
		case res := <-o.targetWriteInvalidChan:
			buffer.AppendWriteInvalid(res)
		default:
			return
		}
	}
}

func (o *Observer) report(buffer *models.ObserverBuffer) {
	o.log.Info(buffer.String())
	if o.statsClient != nil {
		o.statsClient.Send(buffer)
	}
}

// Stop issues a signal to halt observer processing
func (o *Observer) Stop() {
	o.log.Info("Observer Stop() called")
	if o.isRunning {
		o.exitSignal <- struct{}{}
		<-o.stopDone
	}
}

// --- Functions called to push information to observer

// Dispatched pushes the result of invoking blocks for a batch onto a channel
// for processing by the observer
func (o *Observer) Dispatched(r *models.DispatchResult) {
	o.dispatchChan <- r
}

// TargetWrite pushes a targets write result onto a channel for processing
// by the observer
func (o *Observer) TargetWrite(r *models.TargetWriteResult) {
	o.targetWriteChan <- r
}

// TargetWriteOversized pushes a failure targets write result onto a channel for processing
// by the observer
func (o *Observer) TargetWriteOversized(r *models.TargetWriteResult) {
	o.targetWriteOversizedChan <- r
}

// TargetWriteInvalid pushes a failure targets write result onto a channel for processing
// by the observer
func (o *Observer) TargetWriteInvalid(r *models.TargetWriteResult) {
	o.targetWriteInvalidChan <- r
}
