// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package inmemory

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twinj/uuid"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

// ConfigPair is passed to configuration to determine when to build an in memory source
// fed by the provided channel. Every slice received is written as one batch of events.
func ConfigPair(events chan []string) sourceconfig.ConfigPair {
	return sourceconfig.ConfigPair{
		Name:   "inMemory",
		Handle: adapterGenerator(configfunction(events)),
	}
}

type configuration struct{}

type inMemorySource struct {
	events     chan []string
	log        *log.Entry
	exitSignal chan struct{}
}

func configfunction(events chan []string) func(c *configuration) (sourceiface.Source, error) {
	return func(c *configuration) (sourceiface.Source, error) {
		return newInMemorySource(events)
	}
}

type adapter func(i interface{}) (interface{}, error)

func (f adapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

func (f adapter) ProvideDefault() (interface{}, error) {
	return &configuration{}, nil
}

func adapterGenerator(f func(c *configuration) (sourceiface.Source, error)) adapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*configuration)
		if !ok {
			return nil, errors.New("invalid input, expected in memory source configuration")
		}

		return f(cfg)
	}
}

func newInMemorySource(events chan []string) (*inMemorySource, error) {
	return &inMemorySource{
		events:     events,
		log:        log.WithFields(log.Fields{"source": "in_memory"}),
		exitSignal: make(chan struct{}),
	}, nil
}

// Read writes every batch received until the source is stopped or the channel is closed
func (ss *inMemorySource) Read(sf *sourceiface.SourceFunctions) error {
	ss.log.Info("Reading events from in memory buffer")

processing:
	for {
		select {
		case <-ss.exitSignal:
			break processing
		case input, ok := <-ss.events:
			if !ok {
				break processing
			}

			timeNow := time.Now().UTC()
			messages := make([]*models.Message, 0, len(input))
			for _, single := range input {
				messages = append(messages, &models.Message{
					Data:         []byte(single),
					PartitionKey: uuid.NewV4().String(),
					TimeCreated:  timeNow,
					TimePulled:   timeNow,
				})
			}

			err := sf.WriteToTarget(messages)
			if err != nil {
				ss.log.WithFields(log.Fields{"error": err}).Error(err)
			}
		}
	}

	ss.log.Info("Done with processing")
	return nil
}

// Stop halts the read loop, it must only be called while Read is running
func (ss *inMemorySource) Stop() {
	ss.log.Warn("Stopping in memory source")
	ss.exitSignal <- struct{}{}
}

// GetID returns the identifier for this source
func (ss *inMemorySource) GetID() string {
	return "inMemory"
}
