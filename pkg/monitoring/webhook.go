// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package monitoring

import (
	"bytes"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	heartbeatSchema = "iglu:com.snowplowanalytics.monitoring.loader/heartbeat/jsonschema/1-0-0"
	alertSchema     = "iglu:com.snowplowanalytics.monitoring.loader/alert/jsonschema/1-0-0"
)

// WebhookEvent is the self-describing JSON posted to the webhook
type WebhookEvent struct {
	Schema string      `json:"schema"`
	Data   WebhookData `json:"data"`
}

// WebhookData identifies the running instance, with the alert message if any
type WebhookData struct {
	AppName    string            `json:"appName"`
	AppVersion string            `json:"appVersion"`
	Tags       map[string]string `json:"tags"`

	Message string `json:"message,omitempty"`
}

// WebhookSender describes the interface for how to send heartbeat & alert events
type WebhookSender interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookMonitoring sends a heartbeat on every interval while the target
// accepts writes. Once an error comes in on the alert channel it sends an
// alert instead, until a nil error marks the recovery.
type WebhookMonitoring struct {
	appName           string
	appVersion        string
	client            WebhookSender
	endpoint          string
	tags              map[string]string
	heartbeatInterval time.Duration
	alertChan         chan error
	exitSignal        chan struct{}

	isHealthy    bool
	currentError error

	log *log.Entry
}

// NewWebhookMonitoring builds a monitor posting to endpoint
func NewWebhookMonitoring(appName, appVersion string, client WebhookSender, endpoint string, tags map[string]string, heartbeatInterval time.Duration, alertChan chan error) *WebhookMonitoring {
	return &WebhookMonitoring{
		appName:           appName,
		appVersion:        appVersion,
		client:            client,
		endpoint:          endpoint,
		tags:              tags,
		heartbeatInterval: heartbeatInterval,
		alertChan:         alertChan,
		exitSignal:        make(chan struct{}),
		isHealthy:         true,
		log:               log.WithFields(log.Fields{"name": "WebhookMonitoring"}),
	}
}

// Start sends a first heartbeat and launches the monitoring loop
func (m *WebhookMonitoring) Start() {
	if err := m.send(heartbeatSchema, ""); err != nil {
		m.log.Warnf("Failed to send heartbeat event: %s", err)
	}

	ticker := time.NewTicker(m.heartbeatInterval)

	go func() {
		defer ticker.Stop()

	MonitoringLoop:
		for {
			select {
			case <-ticker.C:
				if m.isHealthy {
					if err := m.send(heartbeatSchema, ""); err != nil {
						m.log.Warnf("Failed to send heartbeat event: %s", err)
					}
				} else if m.currentError != nil {
					m.alert(m.currentError)
				}
			case err := <-m.alertChan:
				if err == nil {
					if !m.isHealthy {
						m.log.Info("Target writes recovered, resuming heartbeats")
					}
					m.isHealthy = true
					m.currentError = nil
					continue
				}
				if m.isHealthy {
					m.alert(err)
				}
				m.isHealthy = false
				m.currentError = err
			case <-m.exitSignal:
				m.log.Info("WebhookMonitoring is shutting down")
				break MonitoringLoop
			}
		}
	}()
}

// Stop halts the monitoring loop
func (m *WebhookMonitoring) Stop() {
	m.exitSignal <- struct{}{}
}

func (m *WebhookMonitoring) alert(err error) {
	if sendErr := m.send(alertSchema, err.Error()); sendErr != nil {
		m.log.Warnf("Failed to send alert event: %s", sendErr)
	}
}

func (m *WebhookMonitoring) send(schema string, message string) error {
	body, err := json.Marshal(WebhookEvent{
		Schema: schema,
		Data: WebhookData{
			AppName:    m.appName,
			AppVersion: m.appVersion,
			Tags:       m.tags,
			Message:    message,
		},
	})
	if err != nil {
		return errors.Wrap(err, "Failed to encode webhook event")
	}

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "Failed to build webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if resp != nil && resp.StatusCode >= 300 {
		return errors.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
