// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"fmt"
	"time"
)

// ObserverBuffer contains all the metrics we are processing
type ObserverBuffer struct {
	DispatchResults int64
	InvokeSucceeded int64
	InvokeFailed    int64

	TargetResults int64
	MsgSent       int64
	MsgFailed     int64
	MsgTotal      int64

	OversizedTargetResults int64
	OversizedMsgSent       int64
	OversizedMsgFailed     int64
	OversizedMsgTotal      int64

	InvalidTargetResults int64
	InvalidMsgSent       int64
	InvalidMsgFailed     int64
	InvalidMsgTotal      int64

	MaxProcLatency   time.Duration
	MinProcLatency   time.Duration
	SumProcLatency   time.Duration
	MaxMsgLatency    time.Duration
	MinMsgLatency    time.Duration
	SumMsgLatency    time.Duration
	MaxInvokeLatency time.Duration
	MinInvokeLatency time.Duration
	SumInvokeLatency time.Duration
}

// AppendDispatch adds a DispatchResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendDispatch(res *DispatchResult) {
	if res == nil {
		return
	}

	b.DispatchResults++
	b.InvokeSucceeded += res.OutputCount
	b.InvokeFailed += res.InvalidCount

	if b.MaxInvokeLatency < res.MaxInvokeLatency {
		b.MaxInvokeLatency = res.MaxInvokeLatency
	}
	if b.MinInvokeLatency > res.MinInvokeLatency || b.MinInvokeLatency == time.Duration(0) {
		b.MinInvokeLatency = res.MinInvokeLatency
	}
	b.SumInvokeLatency += res.AvgInvokeLatency
}

// AppendWrite adds a normal TargetWriteResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendWrite(res *TargetWriteResult) {
	if res == nil {
		return
	}

	b.TargetResults++
	b.MsgSent += res.SentCount
	b.MsgFailed += res.FailedCount
	b.MsgTotal += res.Total()

	b.appendWriteResult(res)
}

// AppendWriteOversized adds an oversized TargetWriteResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendWriteOversized(res *TargetWriteResult) {
	if res == nil {
		return
	}

	b.OversizedTargetResults++
	b.OversizedMsgSent += res.SentCount
	b.OversizedMsgFailed += res.FailedCount
	b.OversizedMsgTotal += res.Total()

	b.appendWriteResult(res)
}

// AppendWriteInvalid adds an invalid TargetWriteResult onto the buffer and stores the result
func (b *ObserverBuffer) AppendWriteInvalid(res *TargetWriteResult) {
	if res == nil {
		return
	}

	b.InvalidTargetResults++
	b.InvalidMsgSent += res.SentCount
	b.InvalidMsgFailed += res.FailedCount
	b.InvalidMsgTotal += res.Total()

	b.appendWriteResult(res)
}

func (b *ObserverBuffer) appendWriteResult(res *TargetWriteResult) {
	if b.MaxProcLatency < res.MaxProcLatency {
		b.MaxProcLatency = res.MaxProcLatency
	}
	if b.MinProcLatency > res.MinProcLatency || b.MinProcLatency == time.Duration(0) {
		b.MinProcLatency = res.MinProcLatency
	}
	b.SumProcLatency += res.AvgProcLatency

	if b.MaxMsgLatency < res.MaxMsgLatency {
		b.MaxMsgLatency = res.MaxMsgLatency
	}
	if b.MinMsgLatency > res.MinMsgLatency || b.MinMsgLatency == time.Duration(0) {
		b.MinMsgLatency = res.MinMsgLatency
	}
	b.SumMsgLatency += res.AvgMsgLatency
}

// GetSumResults returns the total number of results logged in the buffer
func (b *ObserverBuffer) GetSumResults() int64 {
	return b.TargetResults + b.OversizedTargetResults + b.InvalidTargetResults
}

// GetAvgProcLatency calculates average processing latency
func (b *ObserverBuffer) GetAvgProcLatency() time.Duration {
	return GetAverageFromDuration(b.SumProcLatency, b.GetSumResults())
}

// GetAvgMsgLatency calculates average message latency
func (b *ObserverBuffer) GetAvgMsgLatency() time.Duration {
	return GetAverageFromDuration(b.SumMsgLatency, b.GetSumResults())
}

// GetAvgInvokeLatency calculates average block invocation latency
func (b *ObserverBuffer) GetAvgInvokeLatency() time.Duration {
	return GetAverageFromDuration(b.SumInvokeLatency, b.DispatchResults)
}

func (b *ObserverBuffer) String() string {
	return fmt.Sprintf(
		"DispatchResults:%d,InvokeSucceeded:%d,InvokeFailed:%d,TargetResults:%d,MsgSent:%d,MsgFailed:%d,OversizedTargetResults:%d,OversizedMsgSent:%d,OversizedMsgFailed:%d,InvalidTargetResults:%d,InvalidMsgSent:%d,InvalidMsgFailed:%d,MaxProcLatency:%d,MaxMsgLatency:%d,MaxInvokeLatency:%d",
		b.DispatchResults,
		b.InvokeSucceeded,
		b.InvokeFailed,
		b.TargetResults,
		b.MsgSent,
		b.MsgFailed,
		b.OversizedTargetResults,
		b.OversizedMsgSent,
		b.OversizedMsgFailed,
		b.InvalidTargetResults,
		b.InvalidMsgSent,
		b.InvalidMsgFailed,
		b.MaxProcLatency.Milliseconds(),
		b.MaxMsgLatency.Milliseconds(),
		b.MaxInvokeLatency.Milliseconds(),
	)
}
