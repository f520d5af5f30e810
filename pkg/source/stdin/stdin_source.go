// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package stdinsource

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/twinj/uuid"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

// maxLineBytes bounds a single event line
const maxLineBytes = 1024 * 1024

// StdinSourceConfig configures the source for events read line by line
type StdinSourceConfig struct {
	ConcurrentWrites int `hcl:"concurrent_writes,optional" env:"SOURCE_CONCURRENT_WRITES"`
}

// stdinSource reads one event per line
type stdinSource struct {
	input            io.Reader
	concurrentWrites int

	log *log.Entry
}

func configfunction(c *StdinSourceConfig) (sourceiface.Source, error) {
	return newStdinSource(os.Stdin, c.ConcurrentWrites)
}

// The StdinSourceAdapter type is an adapter for functions to be used as
// pluggable components for Stdin Source. It implements the Pluggable interface.
type StdinSourceAdapter func(i interface{}) (interface{}, error)

// Create implements the ComponentCreator interface.
func (f StdinSourceAdapter) Create(i interface{}) (interface{}, error) {
	return f(i)
}

// ProvideDefault implements the ComponentConfigurable interface.
func (f StdinSourceAdapter) ProvideDefault() (interface{}, error) {
	return &StdinSourceConfig{
		ConcurrentWrites: 50,
	}, nil
}

// AdaptStdinSourceFunc returns a StdinSourceAdapter.
func AdaptStdinSourceFunc(f func(c *StdinSourceConfig) (sourceiface.Source, error)) StdinSourceAdapter {
	return func(i interface{}) (interface{}, error) {
		cfg, ok := i.(*StdinSourceConfig)
		if !ok {
			return nil, errors.New("invalid input, expected StdinSourceConfig")
		}

		return f(cfg)
	}
}

// ConfigPair is passed to configuration to determine when to build an stdin source.
var ConfigPair = sourceconfig.ConfigPair{
	Name:   "stdin",
	Handle: AdaptStdinSourceFunc(configfunction),
}

func newStdinSource(input io.Reader, concurrentWrites int) (*stdinSource, error) {
	if concurrentWrites < 1 {
		return nil, errors.Errorf("concurrent_writes must be at least 1, got %d", concurrentWrites)
	}

	return &stdinSource{
		input:            input,
		concurrentWrites: concurrentWrites,
		log:              log.WithFields(log.Fields{"source": "stdin"}),
	}, nil
}

// Read will execute until CTRL + D is pressed or until EOF is passed
func (ss *stdinSource) Read(sf *sourceiface.SourceFunctions) error {
	ss.log.Infof("Reading events from 'stdin', scanning until EOF detected (Note: Press 'CTRL + D' to exit)")

	throttle := make(chan struct{}, ss.concurrentWrites)
	wg := sync.WaitGroup{}

	scanner := bufio.NewScanner(ss.input)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		timeNow := time.Now().UTC()
		data := make([]byte, len(line))
		copy(data, line)

		messages := []*models.Message{
			{
				Data:         data,
				PartitionKey: uuid.NewV4().String(),
				TimeCreated:  timeNow,
				TimePulled:   timeNow,
			},
		}

		throttle <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := sf.WriteToTarget(messages)
			if err != nil {
				ss.log.WithFields(log.Fields{"error": err}).Error(err)
			}
			<-throttle
		}()
	}
	wg.Wait()

	if scanner.Err() != nil {
		return errors.Wrap(scanner.Err(), "Failed to read from stdin scanner")
	}
	return nil
}

// Stop will halt the reader processing more events
func (ss *stdinSource) Stop() {
	ss.log.Warn("Press CTRL + D to exit!")
}

// GetID returns the identifier for this source
func (ss *stdinSource) GetID() string {
	return "stdin"
}
