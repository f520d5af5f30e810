// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// StdoutTargetConfig configures the printing of output and failure events.
// DataOnlyOutput prints the bare event, otherwise every line is prefixed
// with the block and event id. Pretty indents JSON events.
type StdoutTargetConfig struct {
	DataOnlyOutput bool `hcl:"data_only_output,optional" env:"TARGET_STDOUT_DATA_ONLY_OUTPUT"`
	Pretty         bool `hcl:"pretty,optional" env:"TARGET_STDOUT_PRETTY"`
}

// StdoutTarget prints events to a writer, stdout unless tests say otherwise
type StdoutTarget struct {
	output         io.Writer
	dataOnlyOutput bool
	pretty         bool

	log *log.Entry
}

// eventHeader is the part of output and failure events used to label lines
type eventHeader struct {
	ID    string `json:"id"`
	Block string `json:"block"`
}

func newStdoutTarget(c *StdoutTargetConfig) (*StdoutTarget, error) {
	return newStdoutTargetWithInterfaces(os.Stdout, c)
}

func newStdoutTargetWithInterfaces(writer io.Writer, c *StdoutTargetConfig) (*StdoutTarget, error) {
	return &StdoutTarget{
		output:         writer,
		dataOnlyOutput: c.DataOnlyOutput,
		pretty:         c.Pretty,
		log:            log.WithFields(log.Fields{"target": "stdout"}),
	}, nil
}

// StdoutTargetConfigFunction creates an StdoutTarget
func StdoutTargetConfigFunction(c *StdoutTargetConfig) (*StdoutTarget, error) {
	return newStdoutTarget(c)
}

// The StdoutTargetAdapter type is an adapter for functions to be used as
// pluggable components for Stdout Target. It implements the Pluggable interface.
type StdoutTargetAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f StdoutTargetAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f StdoutTargetAdapter) ProvideDefault() (interface{}, error) {
	return &StdoutTargetConfig{}, nil
}

// AdaptStdoutTargetFunc returns StdoutTargetAdapter.
func AdaptStdoutTargetFunc(f func(c *StdoutTargetConfig) (*StdoutTarget, error)) StdoutTargetAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*StdoutTargetConfig)
		if !ok {
			return nil, errors.New("invalid input, expected StdoutTargetConfig")
		}

		return f(cfg)
	}
}

// Write prints every event on its own line. Messages which fail to print
// are returned as failed and left unacked.
func (st *StdoutTarget) Write(messages []*models.Message) (*models.TargetWriteResult, error) {
	st.log.Debugf("Printing %d events ...", len(messages))

	safeMessages, oversized := models.FilterOversizedMessages(
		messages,
		st.MaximumAllowedMessageSizeBytes(),
	)

	var sent []*models.Message
	var failed []*models.Message
	var errResult error

	for _, msg := range safeMessages {
		if err := st.print(msg); err != nil {
			msg.SetError(err)
			errResult = multierror.Append(errResult, err)
			failed = append(failed, msg)
			continue
		}

		if msg.AckFunc != nil {
			msg.AckFunc()
		}
		sent = append(sent, msg)
	}

	if errResult != nil {
		st.log.WithError(errResult).Error("Failed to print events")
	}

	return models.NewTargetWriteResult(
		sent,
		failed,
		oversized,
		nil,
	), errResult
}

func (st *StdoutTarget) print(msg *models.Message) error {
	data := msg.Data
	if st.pretty && json.Valid(data) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err == nil {
			data = buf.Bytes()
		}
	}

	if st.dataOnlyOutput {
		_, err := fmt.Fprintf(st.output, "%s\n", data)
		return err
	}

	var header eventHeader
	if err := json.Unmarshal(msg.Data, &header); err != nil || header.Block == "" {
		_, err := fmt.Fprintf(st.output, "%s\n", msg.String())
		return err
	}

	st.log.WithFields(log.Fields{"event_id": header.ID, "block": header.Block}).Debug("Printing event")
	_, err := fmt.Fprintf(st.output, "[%s %s] %s\n", header.Block, header.ID, data)
	return err
}

// Open does not do anything for this target
func (st *StdoutTarget) Open() {}

// Close does not do anything for this target
func (st *StdoutTarget) Close() {}

// MaximumAllowedMessageSizeBytes caps printed events at 10 MiB
func (st *StdoutTarget) MaximumAllowedMessageSizeBytes() int {
	return 10485760
}

// GetID returns the identifier for this target
func (st *StdoutTarget) GetID() string {
	return "stdout"
}
