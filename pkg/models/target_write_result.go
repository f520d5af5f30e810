// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"time"
)

// TargetWriteResult contains the results from a target write operation
type TargetWriteResult struct {
	SentCount   int64
	FailedCount int64

	// Sent holds all the messages that were successfully sent to the target
	// and therefore have been acked by the target successfully.
	Sent []*Message

	// Failed holds all the messages that failed to be sent to the target
	// and therefore should be retried by the runtime or handed to the failure target.
	Failed []*Message

	// Oversized holds all the messages that were too big to be sent to
	// the downstream target
	Oversized []*Message

	// Invalid holds all the messages that cannot be sent to the target
	// due to a data or formatting error
	Invalid []*Message

	// Delta between TimePulled and TimeOfWrite tells us how well the
	// application is at processing data internally
	MaxProcLatency time.Duration
	MinProcLatency time.Duration
	AvgProcLatency time.Duration

	// Delta between TimeCreated and TimeOfWrite tells us how far behind
	// the application is on the stream it is consuming from
	MaxMsgLatency time.Duration
	MinMsgLatency time.Duration
	AvgMsgLatency time.Duration
}

// NewTargetWriteResult uses the current time as the WriteTime and then calls NewTargetWriteResultWithTime
func NewTargetWriteResult(sent []*Message, failed []*Message, oversized []*Message, invalid []*Message) *TargetWriteResult {
	return NewTargetWriteResultWithTime(sent, failed, oversized, invalid, time.Now().UTC())
}

// NewTargetWriteResultWithTime builds a result structure to return from a target write
// attempt which contains the sent and failed message counts as well as several
// derived latency measures.
func NewTargetWriteResultWithTime(sent []*Message, failed []*Message, oversized []*Message, invalid []*Message, timeOfWrite time.Time) *TargetWriteResult {
	r := TargetWriteResult{
		SentCount:   int64(len(sent)),
		FailedCount: int64(len(failed)),
		Sent:        sent,
		Failed:      failed,
		Oversized:   oversized,
		Invalid:     invalid,
	}

	processed := make([]*Message, 0, len(sent)+len(failed))
	processed = append(processed, sent...)
	processed = append(processed, failed...)
	processedLen := int64(len(processed))

	var sumProcLatency time.Duration
	var sumMessageLatency time.Duration

	for _, msg := range processed {
		procLatency := timeOfWrite.Sub(msg.TimePulled)
		if r.MaxProcLatency < procLatency {
			r.MaxProcLatency = procLatency
		}
		if r.MinProcLatency > procLatency || r.MinProcLatency == time.Duration(0) {
			r.MinProcLatency = procLatency
		}
		sumProcLatency += procLatency

		messageLatency := timeOfWrite.Sub(msg.TimeCreated)
		if r.MaxMsgLatency < messageLatency {
			r.MaxMsgLatency = messageLatency
		}
		if r.MinMsgLatency > messageLatency || r.MinMsgLatency == time.Duration(0) {
			r.MinMsgLatency = messageLatency
		}
		sumMessageLatency += messageLatency
	}

	if processedLen > 0 {
		r.AvgProcLatency = GetAverageFromDuration(sumProcLatency, processedLen)
		r.AvgMsgLatency = GetAverageFromDuration(sumMessageLatency, processedLen)
	}

	return &r
}

// Total returns the sum of Sent + Failed messages
func (wr *TargetWriteResult) Total() int64 {
	return wr.SentCount + wr.FailedCount
}

// Append will add another write result to the source one to allow for
// result concatenation and then return the resultant struct
func (wr *TargetWriteResult) Append(nwr *TargetWriteResult) *TargetWriteResult {
	wrC := *wr

	if nwr != nil {
		wrC.SentCount += nwr.SentCount
		wrC.FailedCount += nwr.FailedCount

		wrC.Sent = append(wrC.Sent, nwr.Sent...)
		wrC.Failed = append(wrC.Failed, nwr.Failed...)
		wrC.Oversized = append(wrC.Oversized, nwr.Oversized...)
		wrC.Invalid = append(wrC.Invalid, nwr.Invalid...)

		if wrC.MaxProcLatency < nwr.MaxProcLatency {
			wrC.MaxProcLatency = nwr.MaxProcLatency
		}
		if wrC.MinProcLatency > nwr.MinProcLatency || wrC.MinProcLatency == time.Duration(0) {
			wrC.MinProcLatency = nwr.MinProcLatency
		}
		wrC.AvgProcLatency = GetAverageFromDuration(wrC.AvgProcLatency+nwr.AvgProcLatency, 2)

		if wrC.MaxMsgLatency < nwr.MaxMsgLatency {
			wrC.MaxMsgLatency = nwr.MaxMsgLatency
		}
		if wrC.MinMsgLatency > nwr.MinMsgLatency || wrC.MinMsgLatency == time.Duration(0) {
			wrC.MinMsgLatency = nwr.MinMsgLatency
		}
		wrC.AvgMsgLatency = GetAverageFromDuration(wrC.AvgMsgLatency+nwr.AvgMsgLatency, 2)
	}

	return &wrC
}
