// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
	"github.com/snowplow-devops/aws-blocks/pkg/block"
	"github.com/snowplow-devops/aws-blocks/pkg/dispatch"
	"github.com/snowplow-devops/aws-blocks/pkg/failure"
	"github.com/snowplow-devops/aws-blocks/pkg/failure/failureiface"
	"github.com/snowplow-devops/aws-blocks/pkg/monitoring"
	"github.com/snowplow-devops/aws-blocks/pkg/observer"
	"github.com/snowplow-devops/aws-blocks/pkg/statsreceiver"
	"github.com/snowplow-devops/aws-blocks/pkg/statsreceiver/statsreceiveriface"
	"github.com/snowplow-devops/aws-blocks/pkg/target"
	"github.com/snowplow-devops/aws-blocks/pkg/target/targetiface"
)

const (
	// ConfigFileEnvVar names the environment variable pointing at the HCL configuration file
	ConfigFileEnvVar = "AWS_BLOCKS_CONFIG_FILE"

	supportedTargets = "stdout, sqs, kinesis, kafka, pubsub, http"
)

// Config holds the configuration data along with the decoder to decode them
type Config struct {
	Data    *ConfigurationData
	Decoder Decoder
}

// ConfigurationData for holding all configuration options
type ConfigurationData struct {
	Source                  *Component          `hcl:"source,block" envPrefix:"SOURCE_"`
	Target                  *Component          `hcl:"target,block" envPrefix:"TARGET_"`
	FailureTarget           *FailureConfig      `hcl:"failure_target,block"`
	AWS                     *awsclient.Settings `hcl:"aws,block"`
	Blocks                  *BlocksConfig       `hcl:"blocks,block"`
	Retry                   *RetryConfig        `hcl:"retry,block"`
	Monitoring              *MonitoringConfig   `hcl:"monitoring,block"`
	Sentry                  *SentryConfig       `hcl:"sentry,block"`
	StatsReceiver           *StatsConfig        `hcl:"stats_receiver,block"`
	LogLevel                string              `hcl:"log_level,optional" env:"LOG_LEVEL"`
	GoogleServiceAccountB64 string              `hcl:"google_application_credentials_b64,optional" env:"GOOGLE_APPLICATION_CREDENTIALS_B64"`
	UserProvidedID          string              `hcl:"user_provided_id,optional" env:"USER_PROVIDED_ID"`
}

// Component is a type to abstract over configuration blocks.
type Component struct {
	Use *Use `hcl:"use,block"`
}

// Use is a type to denote what a component will be configured to use.
type Use struct {
	Name string   `hcl:",label" env:"NAME"`
	Body hcl.Body `hcl:",remain"`
}

// FailureConfig holds configuration for the failure target.
type FailureConfig struct {
	Target *Use   `hcl:"use,block" envPrefix:"FAILURE_TARGET_"`
	Format string `hcl:"format,optional" env:"FAILURE_TARGETS_FORMAT"`
}

// BlocksConfig restricts which blocks may be invoked and for how long
type BlocksConfig struct {
	Enabled    []string `hcl:"enabled,optional" env:"BLOCKS_ENABLED" envSeparator:","`
	TimeoutSec int      `hcl:"timeout_sec,optional" env:"BLOCKS_TIMEOUT_SEC"`
}

// RetryConfig bounds the attempts made to write to the target and failure target
type RetryConfig struct {
	MaxAttempts int `hcl:"max_attempts,optional" env:"RETRY_MAX_ATTEMPTS"`
	DelayMs     int `hcl:"delay_ms,optional" env:"RETRY_DELAY_MS"`
}

// MonitoringConfig holds the optional outer monitoring of the process
type MonitoringConfig struct {
	Webhook *WebhookConfig `hcl:"webhook,block"`
}

// WebhookConfig configures the endpoint receiving heartbeats and alerts
type WebhookConfig struct {
	Endpoint             string `hcl:"endpoint,optional" env:"MONITORING_WEBHOOK_ENDPOINT"`
	Tags                 string `hcl:"tags,optional" env:"MONITORING_WEBHOOK_TAGS"`
	HeartbeatIntervalSec int    `hcl:"heartbeat_interval_sec,optional" env:"MONITORING_WEBHOOK_HEARTBEAT_INTERVAL_SEC"`
}

// SentryConfig configures the Sentry error tracker.
type SentryConfig struct {
	Dsn   string `hcl:"dsn" env:"SENTRY_DSN"`
	Tags  string `hcl:"tags,optional" env:"SENTRY_TAGS"`
	Debug bool   `hcl:"debug,optional" env:"SENTRY_DEBUG"`
}

// StatsConfig holds configuration for stats receivers.
type StatsConfig struct {
	Receiver   *Use `hcl:"use,block" envPrefix:"STATS_RECEIVER_"`
	TimeoutSec int  `hcl:"timeout_sec,optional" env:"STATS_RECEIVER_TIMEOUT_SEC"`
	BufferSec  int  `hcl:"buffer_sec,optional" env:"STATS_RECEIVER_BUFFER_SEC"`
}

// defaultConfigData returns the initial main configuration target.
func defaultConfigData() *ConfigurationData {
	return &ConfigurationData{
		Source: &Component{&Use{Name: "stdin"}},
		Target: &Component{&Use{Name: "stdout"}},

		FailureTarget: &FailureConfig{
			Target: &Use{Name: "stdout"},
			Format: "json",
		},
		AWS: &awsclient.Settings{},
		Blocks: &BlocksConfig{
			TimeoutSec: 30,
		},
		Retry: &RetryConfig{
			MaxAttempts: 5,
			DelayMs:     1000,
		},
		Monitoring: &MonitoringConfig{
			Webhook: &WebhookConfig{
				Tags:                 "{}",
				HeartbeatIntervalSec: 300,
			},
		},
		Sentry: &SentryConfig{
			Tags: "{}",
		},
		StatsReceiver: &StatsConfig{
			Receiver:   &Use{},
			TimeoutSec: 1,
			BufferSec:  15,
		},
		LogLevel: "info",
	}
}

// withDefaults restores the blocks which are absent from an HCL file, as
// gohcl leaves a missing optional block as a nil pointer.
func (d *ConfigurationData) withDefaults() *ConfigurationData {
	def := defaultConfigData()
	if d.Source == nil || d.Source.Use == nil {
		d.Source = def.Source
	}
	if d.Target == nil || d.Target.Use == nil {
		d.Target = def.Target
	}
	if d.FailureTarget == nil {
		d.FailureTarget = def.FailureTarget
	}
	if d.FailureTarget.Target == nil {
		d.FailureTarget.Target = def.FailureTarget.Target
	}
	if d.FailureTarget.Format == "" {
		d.FailureTarget.Format = def.FailureTarget.Format
	}
	if d.AWS == nil {
		d.AWS = def.AWS
	}
	if d.Blocks == nil {
		d.Blocks = def.Blocks
	}
	if d.Retry == nil {
		d.Retry = def.Retry
	}
	if d.Retry.MaxAttempts == 0 {
		d.Retry.MaxAttempts = def.Retry.MaxAttempts
	}
	if d.Retry.DelayMs == 0 {
		d.Retry.DelayMs = def.Retry.DelayMs
	}
	if d.Monitoring == nil {
		d.Monitoring = def.Monitoring
	}
	if d.Monitoring.Webhook == nil {
		d.Monitoring.Webhook = def.Monitoring.Webhook
	}
	if d.Monitoring.Webhook.Tags == "" {
		d.Monitoring.Webhook.Tags = def.Monitoring.Webhook.Tags
	}
	if d.Monitoring.Webhook.HeartbeatIntervalSec == 0 {
		d.Monitoring.Webhook.HeartbeatIntervalSec = def.Monitoring.Webhook.HeartbeatIntervalSec
	}
	if d.Sentry == nil {
		d.Sentry = def.Sentry
	}
	if d.Sentry.Tags == "" {
		d.Sentry.Tags = def.Sentry.Tags
	}
	if d.StatsReceiver == nil {
		d.StatsReceiver = def.StatsReceiver
	}
	if d.StatsReceiver.Receiver == nil {
		d.StatsReceiver.Receiver = def.StatsReceiver.Receiver
	}
	if d.StatsReceiver.TimeoutSec == 0 {
		d.StatsReceiver.TimeoutSec = def.StatsReceiver.TimeoutSec
	}
	if d.StatsReceiver.BufferSec == 0 {
		d.StatsReceiver.BufferSec = def.StatsReceiver.BufferSec
	}
	return d
}

// NewConfig returns a configuration read from the HCL file named by
// AWS_BLOCKS_CONFIG_FILE, or from the environment when it is unset
func NewConfig() (*Config, error) {
	filename := os.Getenv(ConfigFileEnvVar)
	if filename == "" {
		return newEnvConfig()
	}

	switch suffix := strings.ToLower(filepath.Ext(filename)); suffix {
	case ".hcl":
		return newHclConfig(filename)
	default:
		return nil, errors.New("invalid extension for the configuration file")
	}
}

func newEnvConfig() (*Config, error) {
	decoderOpts := &DecoderOptions{}
	envDecoder := &envDecoder{}

	configData := defaultConfigData()

	err := envDecoder.Decode(decoderOpts, configData)
	if err != nil {
		return nil, err
	}

	mainConfig := Config{
		Data:    configData,
		Decoder: envDecoder,
	}

	return &mainConfig, nil
}

func newHclConfig(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	parser := hclparse.NewParser()
	fileHCL, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	configData := defaultConfigData()
	decoderOpts := &DecoderOptions{Input: fileHCL.Body}
	hclDecoder := &hclDecoder{EvalContext: CreateHclContext()}

	err = hclDecoder.Decode(decoderOpts, configData)
	if err != nil {
		return nil, err
	}

	mainConfig := Config{
		Data:    configData.withDefaults(),
		Decoder: hclDecoder,
	}

	return &mainConfig, nil
}

// CreateComponent creates a pluggable component given the decoder options.
func (c *Config) CreateComponent(p Pluggable, opts *DecoderOptions) (interface{}, error) {
	componentConfigure := WithDecoderOptions(opts)

	decodedConfig, err := componentConfigure(p, c.Decoder)
	if err != nil {
		return nil, err
	}

	return p.Create(decodedConfig)
}

func targetPlug(name string) (Pluggable, bool) {
	switch name {
	case "stdout":
		return target.AdaptStdoutTargetFunc(target.StdoutTargetConfigFunction), true
	case "sqs":
		return target.AdaptSQSTargetFunc(target.SQSTargetConfigFunction), true
	case "kinesis":
		return target.AdaptKinesisTargetFunc(target.KinesisTargetConfigFunction), true
	case "kafka":
		return target.AdaptKafkaTargetFunc(target.NewKafkaTarget), true
	case "pubsub":
		return target.AdaptPubSubTargetFunc(target.PubSubTargetConfigFunction), true
	case "http":
		return target.AdaptHTTPTargetFunc(target.HTTPTargetConfigFunction), true
	default:
		return nil, false
	}
}

// GetTarget builds and returns the target that is configured
func (c *Config) GetTarget() (targetiface.Target, error) {
	useTarget := c.Data.Target.Use
	decoderOpts := &DecoderOptions{
		Input: useTarget.Body,
	}

	plug, ok := targetPlug(useTarget.Name)
	if !ok {
		return nil, fmt.Errorf("Invalid target found; expected one of '%s' and got '%s'", supportedTargets, useTarget.Name)
	}

	component, err := c.CreateComponent(plug, decoderOpts)
	if err != nil {
		return nil, err
	}

	if t, ok := component.(targetiface.Target); ok {
		return t, nil
	}

	return nil, fmt.Errorf("could not interpret target configuration for %q", useTarget.Name)
}

// GetFailureTarget builds and returns the failure target that is configured.
// Its environment variables carry a FAILURE_ prefix on top of the target ones.
func (c *Config) GetFailureTarget() (failureiface.Failure, error) {
	useFailureTarget := c.Data.FailureTarget.Target
	decoderOpts := &DecoderOptions{
		Prefix: "FAILURE_",
		Input:  useFailureTarget.Body,
	}

	plug, ok := targetPlug(useFailureTarget.Name)
	if !ok {
		return nil, fmt.Errorf("Invalid failure target found; expected one of '%s' and got '%s'", supportedTargets, useFailureTarget.Name)
	}

	component, err := c.CreateComponent(plug, decoderOpts)
	if err != nil {
		return nil, err
	}

	t, ok := component.(targetiface.Target)
	if !ok {
		return nil, fmt.Errorf("could not interpret failure target configuration for %q", useFailureTarget.Name)
	}

	switch c.Data.FailureTarget.Format {
	case "json":
		return failure.NewEventFailure(t)
	default:
		return nil, fmt.Errorf("Invalid failure format found; expected one of 'json' and got '%s'", c.Data.FailureTarget.Format)
	}
}

// GetRegistry returns every known block, restricted to the enabled patterns
func (c *Config) GetRegistry() (*block.Registry, error) {
	registry := block.NewDefaultRegistry()
	if err := registry.Enable(c.Data.Blocks.Enabled); err != nil {
		return nil, err
	}
	return registry, nil
}

// GetDispatcher builds the dispatcher over the enabled blocks, with the
// configured AWS settings as defaults for every event
func (c *Config) GetDispatcher() (*dispatch.Dispatcher, error) {
	registry, err := c.GetRegistry()
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Data.Blocks.TimeoutSec) * time.Second
	return dispatch.NewDispatcher(registry, *c.Data.AWS, timeout), nil
}

// GetTags returns a list of tags to use in identifying this instance of aws-blocks with enough
// entropy so as to avoid collisions as it should not be possible to have both the host and process_id be
// the same.
func (c *Config) GetTags() (map[string]string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get server hostname as tag")
	}

	tags := map[string]string{
		"host":       hostname,
		"process_id": strconv.Itoa(os.Getpid()),
	}
	if c.Data.UserProvidedID != "" {
		tags["user_provided_id"] = c.Data.UserProvidedID
	}

	return tags, nil
}

// GetWebhookMonitoring builds the webhook monitoring along with the channel
// to send target errors on. Both are nil when no endpoint is configured.
func (c *Config) GetWebhookMonitoring(appName string, appVersion string, tags map[string]string) (*monitoring.WebhookMonitoring, chan error, error) {
	webhook := c.Data.Monitoring.Webhook
	if webhook.Endpoint == "" {
		return nil, nil, nil
	}

	webhookTags := map[string]string{}
	if err := json.Unmarshal([]byte(webhook.Tags), &webhookTags); err != nil {
		return nil, nil, errors.Wrap(err, "Failed to unmarshall MONITORING_WEBHOOK_TAGS to map")
	}
	for k, v := range tags {
		if _, ok := webhookTags[k]; !ok {
			webhookTags[k] = v
		}
	}

	if webhook.HeartbeatIntervalSec < 1 {
		return nil, nil, fmt.Errorf("heartbeat_interval_sec must be positive, got %d", webhook.HeartbeatIntervalSec)
	}

	alertChan := make(chan error)
	client := &http.Client{Timeout: 5 * time.Second}
	interval := time.Duration(webhook.HeartbeatIntervalSec) * time.Second

	return monitoring.NewWebhookMonitoring(appName, appVersion, client, webhook.Endpoint, webhookTags, interval, alertChan), alertChan, nil
}

// GetObserver builds and returns the observer with the embedded
// optional stats receiver
func (c *Config) GetObserver(tags map[string]string) (*observer.Observer, error) {
	sr, err := c.GetStatsReceiver(tags)
	if err != nil {
		return nil, err
	}
	return observer.New(sr, time.Duration(c.Data.StatsReceiver.TimeoutSec)*time.Second, time.Duration(c.Data.StatsReceiver.BufferSec)*time.Second), nil
}

// GetStatsReceiver builds and returns the stats receiver
func (c *Config) GetStatsReceiver(tags map[string]string) (statsreceiveriface.StatsReceiver, error) {
	useReceiver := c.Data.StatsReceiver.Receiver
	decoderOpts := &DecoderOptions{
		Input: useReceiver.Body,
	}

	switch useReceiver.Name {
	case "statsd":
		plug := statsreceiver.AdaptStatsDStatsReceiverFunc(
			statsreceiver.NewStatsDReceiverWithTags(tags),
		)
		component, err := c.CreateComponent(plug, decoderOpts)
		if err != nil {
			return nil, err
		}

		if r, ok := component.(statsreceiveriface.StatsReceiver); ok {
			return r, nil
		}

		return nil, fmt.Errorf("could not interpret stats receiver configuration for %q", useReceiver.Name)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("Invalid stats receiver found; expected one of 'statsd' and got '%s'", useReceiver.Name)
	}
}
