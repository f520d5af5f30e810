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

func TestNewDispatchResult_Empty(t *testing.T) {
	assert := assert.New(t)

	r := NewDispatchResult(nil, nil, nil)
	assert.NotNil(r)
	assert.Equal(int64(0), r.Total())
	assert.Equal(time.Duration(0), r.MaxInvokeLatency)
	assert.Equal(time.Duration(0), r.AvgInvokeLatency)
}

func TestNewDispatchResult_WithMessages(t *testing.T) {
	assert := assert.New(t)

	output := []*Message{{Data: []byte("a")}, {Data: []byte("b")}}
	invalid := []*Message{{Data: []byte("c")}}
	latencies := []time.Duration{
		time.Duration(10) * time.Millisecond,
		time.Duration(30) * time.Millisecond,
		time.Duration(20) * time.Millisecond,
	}

	r := NewDispatchResult(output, invalid, latencies)
	assert.Equal(int64(2), r.OutputCount)
	assert.Equal(int64(1), r.InvalidCount)
	assert.Equal(int64(3), r.Total())
	assert.Equal(time.Duration(30)*time.Millisecond, r.MaxInvokeLatency)
	assert.Equal(time.Duration(10)*time.Millisecond, r.MinInvokeLatency)
	assert.Equal(time.Duration(20)*time.Millisecond, r.AvgInvokeLatency)
}
