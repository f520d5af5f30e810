// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package inmemory

import (
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/config"
	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

func TestMain(m *testing.M) {
	os.Clearenv()
	exitVal := m.Run()
	os.Exit(exitVal)
}

func TestInMemorySource_ReadSuccess(t *testing.T) {
	assert := assert.New(t)

	wg := sync.WaitGroup{}
	inputChannel := make(chan []string)
	source, err := newInMemorySource(inputChannel)
	assert.NotNil(source)
	assert.Nil(err)
	assert.Equal("inMemory", source.GetID())

	var out []string
	var batches int

	writeFunc := func(messages []*models.Message) error {
		batches++
		for _, msg := range messages {
			out = append(out, string(msg.Data))
			wg.Done()
		}
		return nil
	}

	sf := sourceiface.SourceFunctions{
		WriteToTarget: writeFunc,
	}

	done := make(chan struct{})
	go func() {
		err1 := source.Read(&sf)
		assert.Nil(err1)
		close(done)
	}()

	wg.Add(6)
	inputChannel <- []string{"m1", "m2"}
	inputChannel <- []string{"m3", "m4", "m5"}
	inputChannel <- []string{"m6"}
	wg.Wait()

	source.Stop()
	<-done

	assert.Equal([]string{"m1", "m2", "m3", "m4", "m5", "m6"}, out)
	assert.Equal(3, batches)
}

func TestInMemorySource_ClosedChannel(t *testing.T) {
	assert := assert.New(t)

	inputChannel := make(chan []string, 1)
	inputChannel <- []string{`{"block":"sqs.ListQueues"}`}
	close(inputChannel)

	source, err := newInMemorySource(inputChannel)
	assert.Nil(err)

	var count int
	err = source.Read(&sourceiface.SourceFunctions{
		WriteToTarget: func(messages []*models.Message) error {
			count += len(messages)
			return nil
		},
	})
	assert.Nil(err)
	assert.Equal(1, count)
}

func TestGetSource_WithInMemorySource(t *testing.T) {
	assert := assert.New(t)

	t.Setenv("SOURCE_NAME", "inMemory")

	c, err := config.NewConfig()
	assert.Nil(err)

	source, err := sourceconfig.GetSource(c, []sourceconfig.ConfigPair{ConfigPair(make(chan []string))})
	assert.Nil(err)
	if assert.NotNil(source) {
		assert.Equal("inMemory", source.GetID())
	}
}
