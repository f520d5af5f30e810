// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewTargetWriteResult_EmptyWithoutTime tests that an empty targetWriteResult with no timings will report 0s across the board
func TestNewTargetWriteResult_EmptyWithoutTime(t *testing.T) {
	assert := assert.New(t)

	r := NewTargetWriteResult(nil, nil, nil, nil)
	assert.NotNil(r)

	assert.Equal(int64(0), r.SentCount)
	assert.Equal(int64(0), r.FailedCount)
	assert.Equal(int64(0), r.Total())
	assert.Equal(time.Duration(0), r.MaxProcLatency)
	assert.Equal(time.Duration(0), r.AvgMsgLatency)
}

// TestNewTargetWriteResult_WithMessages tests that reporting of statistics is as it should be when we have all data
func TestNewTargetWriteResult_WithMessages(t *testing.T) {
	assert := assert.New(t)

	timeNow := time.Now().UTC()

	sent := []*Message{
		{
			Data:         []byte("Baz"),
			PartitionKey: "partition1",
			TimeCreated:  timeNow.Add(time.Duration(-50) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-4) * time.Minute),
		},
		{
			Data:         []byte("Bar"),
			PartitionKey: "partition2",
			TimeCreated:  timeNow.Add(time.Duration(-70) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-7) * time.Minute),
		},
	}
	failed := []*Message{
		{
			Data:         []byte("Foo"),
			PartitionKey: "partition3",
			TimeCreated:  timeNow.Add(time.Duration(-30) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-10) * time.Minute),
		},
	}

	r := NewTargetWriteResultWithTime(sent, failed, nil, nil, timeNow)
	assert.NotNil(r)

	assert.Equal(int64(2), r.SentCount)
	assert.Equal(int64(1), r.FailedCount)
	assert.Equal(int64(3), r.Total())
	assert.Equal(time.Duration(10)*time.Minute, r.MaxProcLatency)
	assert.Equal(time.Duration(4)*time.Minute, r.MinProcLatency)
	assert.Equal(time.Duration(7)*time.Minute, r.AvgProcLatency)
	assert.Equal(time.Duration(70)*time.Minute, r.MaxMsgLatency)
	assert.Equal(time.Duration(30)*time.Minute, r.MinMsgLatency)
	assert.Equal(time.Duration(50)*time.Minute, r.AvgMsgLatency)

	sent1 := []*Message{
		{
			Data:         []byte("Baz"),
			PartitionKey: "partition1",
			TimeCreated:  timeNow.Add(time.Duration(-55) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-2) * time.Minute),
		},
	}
	failed1 := []*Message{
		{
			Data:         []byte("Bar"),
			PartitionKey: "partition2",
			TimeCreated:  timeNow.Add(time.Duration(-75) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-7) * time.Minute),
		},
		{
			Data:         []byte("Foo"),
			PartitionKey: "partition3",
			TimeCreated:  timeNow.Add(time.Duration(-25) * time.Minute),
			TimePulled:   timeNow.Add(time.Duration(-15) * time.Minute),
		},
	}

	r1 := NewTargetWriteResultWithTime(sent1, failed1, nil, nil, timeNow)
	assert.NotNil(r1)

	// Append a result
	r2 := r.Append(r1)
	// Will not append anything
	r3 := r2.Append(nil)

	// Check that the result has not been mutated
	assert.Equal(2, len(r.Sent))
	assert.Equal(1, len(r.Failed))

	// Check appended result
	assert.Equal(int64(3), r3.SentCount)
	assert.Equal(int64(3), r3.FailedCount)
	assert.Equal(3, len(r3.Sent))
	assert.Equal(3, len(r3.Failed))
	assert.Equal(time.Duration(15)*time.Minute, r3.MaxProcLatency)
	assert.Equal(time.Duration(2)*time.Minute, r3.MinProcLatency)
	assert.Equal(time.Duration(75)*time.Minute, r3.MaxMsgLatency)
	assert.Equal(time.Duration(25)*time.Minute, r3.MinMsgLatency)
}

func TestNewTargetWriteResult_OversizedAndInvalid(t *testing.T) {
	assert := assert.New(t)

	oversized := []*Message{{Data: []byte("big")}}
	invalid := []*Message{{Data: []byte("bad")}, {Data: []byte("worse")}}

	r := NewTargetWriteResult(nil, nil, oversized, invalid)
	assert.Equal(int64(0), r.Total())
	assert.Equal(1, len(r.Oversized))
	assert.Equal(2, len(r.Invalid))

	r1 := r.Append(NewTargetWriteResult(nil, nil, oversized, nil))
	assert.Equal(2, len(r1.Oversized))
	assert.Equal(2, len(r1.Invalid))
}
