// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"time"
)

// DispatchResult contains the results of invoking blocks for a batch of messages
type DispatchResult struct {
	OutputCount  int64
	InvalidCount int64

	// Output holds the output events of every successful invocation, ready
	// to be sent to the target
	Output []*Message

	// Invalid holds every message whose invocation failed, decorated with
	// the error. These cannot be retried and go to the failure target.
	Invalid []*Message

	// Time spent inside the block invocations, SDK round trip included
	MaxInvokeLatency time.Duration
	MinInvokeLatency time.Duration
	AvgInvokeLatency time.Duration
}

// NewDispatchResult builds a DispatchResult from the output and invalid messages
// along with the latency of every invocation attempted
func NewDispatchResult(output []*Message, invalid []*Message, latencies []time.Duration) *DispatchResult {
	r := DispatchResult{
		OutputCount:  int64(len(output)),
		InvalidCount: int64(len(invalid)),
		Output:       output,
		Invalid:      invalid,
	}

	var sumInvokeLatency time.Duration
	for _, l := range latencies {
		if r.MaxInvokeLatency < l {
			r.MaxInvokeLatency = l
		}
		if r.MinInvokeLatency > l || r.MinInvokeLatency == time.Duration(0) {
			r.MinInvokeLatency = l
		}
		sumInvokeLatency += l
	}
	r.AvgInvokeLatency = GetAverageFromDuration(sumInvokeLatency, int64(len(latencies)))

	return &r
}

// Total returns the number of invocations attempted
func (dr *DispatchResult) Total() int64 {
	return dr.OutputCount + dr.InvalidCount
}
