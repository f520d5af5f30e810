// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package observer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// --- Test StatsReceiver

type testStatsReceiver struct {
	mu      sync.Mutex
	buffers []models.ObserverBuffer
}

func (s *testStatsReceiver) Send(b *models.ObserverBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffers = append(s.buffers, *b)
}

func (s *testStatsReceiver) totals() models.ObserverBuffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total models.ObserverBuffer
	for _, b := range s.buffers {
		total.DispatchResults += b.DispatchResults
		total.InvokeSucceeded += b.InvokeSucceeded
		total.InvokeFailed += b.InvokeFailed
		total.TargetResults += b.TargetResults
		total.OversizedTargetResults += b.OversizedTargetResults
		total.InvalidTargetResults += b.InvalidTargetResults
		total.MsgSent += b.MsgSent
		total.MsgFailed += b.MsgFailed
	}
	return total
}

// --- Tests

func TestObserver_ReportsEverything(t *testing.T) {
	assert := assert.New(t)

	sr := &testStatsReceiver{}

	observer := New(sr, 100*time.Millisecond, 500*time.Millisecond)
	assert.NotNil(observer)
	observer.Start()

	// This does nothing
	observer.Start()

	timeNow := time.Now().UTC()
	sent := []*models.Message{
		{Data: []byte("Baz"), TimeCreated: timeNow.Add(-50 * time.Minute), TimePulled: timeNow.Add(-4 * time.Minute)},
		{Data: []byte("Bar"), TimeCreated: timeNow.Add(-70 * time.Minute), TimePulled: timeNow.Add(-7 * time.Minute)},
	}
	failed := []*models.Message{
		{Data: []byte("Foo"), TimeCreated: timeNow.Add(-30 * time.Minute), TimePulled: timeNow.Add(-10 * time.Minute)},
	}
	r := models.NewTargetWriteResultWithTime(sent, failed, nil, nil, timeNow)
	d := models.NewDispatchResult(sent, failed, []time.Duration{time.Second, 3 * time.Second})

	for i := 0; i < 5; i++ {
		observer.Dispatched(d)
		observer.TargetWrite(r)
		observer.TargetWriteOversized(r)
		observer.TargetWriteInvalid(r)
	}

	// Let at least one periodic report go out
	time.Sleep(1 * time.Second)

	observer.Dispatched(d)
	observer.TargetWrite(r)

	observer.Stop()

	assert.True(len(sr.buffers) >= 2)

	total := sr.totals()
	assert.Equal(int64(6), total.DispatchResults)
	assert.Equal(int64(12), total.InvokeSucceeded)
	assert.Equal(int64(6), total.InvokeFailed)
	assert.Equal(int64(6), total.TargetResults)
	assert.Equal(int64(5), total.OversizedTargetResults)
	assert.Equal(int64(5), total.InvalidTargetResults)
	assert.Equal(int64(12), total.MsgSent)
	assert.Equal(int64(6), total.MsgFailed)
}

func TestObserver_StopWithoutStart(t *testing.T) {
	observer := New(nil, time.Second, time.Second)
	observer.Stop()
}
