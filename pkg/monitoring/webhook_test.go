// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package monitoring

import (
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

// recordingSender keeps the decoded body of every request it receives
type recordingSender struct {
	mu     sync.Mutex
	events []WebhookEvent
	urls   []string
}

func (s *recordingSender) Do(req *http.Request) (*http.Response, error) {
	var event WebhookEvent
	if err := json.NewDecoder(req.Body).Decode(&event); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.urls = append(s.urls, req.URL.String())
	return nil, nil
}

func (s *recordingSender) received() []WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]WebhookEvent(nil), s.events...)
}

var testTags = map[string]string{"env": "test"}

func TestWebhookMonitoring_Heartbeats(t *testing.T) {
	assert := assert.New(t)

	sr := &recordingSender{}
	webhook := NewWebhookMonitoring("aws-blocks", "0.1.0", sr, "https://test.webhook.com", testTags, 200*time.Millisecond, nil)
	webhook.Start()

	time.Sleep(500 * time.Millisecond)
	webhook.Stop()

	events := sr.received()
	assert.Equal(3, len(events))
	for _, e := range events {
		assert.Equal(WebhookEvent{
			Schema: heartbeatSchema,
			Data: WebhookData{
				AppName:    "aws-blocks",
				AppVersion: "0.1.0",
				Tags:       testTags,
			},
		}, e)
	}
	assert.Equal("https://test.webhook.com", sr.urls[0])
}

func TestWebhookMonitoring_AlertThenRecover(t *testing.T) {
	assert := assert.New(t)

	sr := &recordingSender{}
	alertChan := make(chan error, 1)
	webhook := NewWebhookMonitoring("aws-blocks", "0.1.0", sr, "https://test.webhook.com", nil, 300*time.Millisecond, alertChan)
	webhook.Start()

	alertChan <- errors.New("target.Write: connection refused")
	time.Sleep(50 * time.Millisecond)

	events := sr.received()
	if assert.Equal(2, len(events)) {
		assert.Equal(heartbeatSchema, events[0].Schema)
		assert.Equal(alertSchema, events[1].Schema)
		assert.Equal("target.Write: connection refused", events[1].Data.Message)
	}

	// A second error while unhealthy replaces the one repeated on the next tick
	alertChan <- errors.New("target.Write: throttled")
	time.Sleep(300 * time.Millisecond)

	events = sr.received()
	if assert.Equal(3, len(events)) {
		assert.Equal(alertSchema, events[2].Schema)
		assert.Equal("target.Write: throttled", events[2].Data.Message)
	}

	alertChan <- nil
	time.Sleep(300 * time.Millisecond)
	webhook.Stop()

	events = sr.received()
	if assert.Equal(4, len(events)) {
		assert.Equal(heartbeatSchema, events[3].Schema)
		assert.Empty(events[3].Data.Message)
	}
}

type statusSender struct {
	status int
}

func (s *statusSender) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: s.status, Body: http.NoBody}, nil
}

func TestWebhookMonitoring_SendStatus(t *testing.T) {
	assert := assert.New(t)

	ok := NewWebhookMonitoring("aws-blocks", "0.1.0", &statusSender{status: 200}, "https://test.webhook.com", nil, time.Second, nil)
	assert.Nil(ok.send(heartbeatSchema, ""))

	failing := NewWebhookMonitoring("aws-blocks", "0.1.0", &statusSender{status: 500}, "https://test.webhook.com", nil, time.Second, nil)
	err := failing.send(heartbeatSchema, "")
	if assert.NotNil(err) {
		assert.Equal("webhook returned status 500", err.Error())
	}

	invalid := NewWebhookMonitoring("aws-blocks", "0.1.0", &statusSender{status: 200}, "://bad", nil, time.Second, nil)
	assert.NotNil(invalid.send(heartbeatSchema, ""))
}
