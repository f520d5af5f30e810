// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package stdinsource

import (
	"os"
	"sort"
	"strings"
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

func TestStdinSource_ReadSuccess(t *testing.T) {
	assert := assert.New(t)

	input := strings.NewReader(`{"block":"sqs.ListQueues"}

{"block":"rds.DescribeDBInstances","input":{"MaxRecords":20}}
`)

	source, err := newStdinSource(input, 2)
	assert.NotNil(source)
	assert.Nil(err)
	assert.Equal("stdin", source.GetID())
	defer source.Stop()

	var mu sync.Mutex
	var out []string
	writeFunc := func(messages []*models.Message) error {
		mu.Lock()
		defer mu.Unlock()
		for _, msg := range messages {
			assert.NotEmpty(msg.PartitionKey)
			assert.False(msg.TimePulled.IsZero())
			out = append(out, string(msg.Data))
		}
		return nil
	}

	err = source.Read(&sourceiface.SourceFunctions{
		WriteToTarget: writeFunc,
	})
	assert.Nil(err)

	sort.Strings(out)
	assert.Equal([]string{
		`{"block":"rds.DescribeDBInstances","input":{"MaxRecords":20}}`,
		`{"block":"sqs.ListQueues"}`,
	}, out)
}

func TestStdinSource_LineTooLong(t *testing.T) {
	assert := assert.New(t)

	input := strings.NewReader(strings.Repeat("a", maxLineBytes+1))

	source, err := newStdinSource(input, 1)
	assert.Nil(err)

	err = source.Read(&sourceiface.SourceFunctions{
		WriteToTarget: func(messages []*models.Message) error { return nil },
	})
	if assert.NotNil(err) {
		assert.Contains(err.Error(), "Failed to read from stdin scanner")
	}
}

func TestNewStdinSource_InvalidConcurrency(t *testing.T) {
	assert := assert.New(t)

	source, err := newStdinSource(strings.NewReader(""), 0)
	assert.Nil(source)
	if assert.NotNil(err) {
		assert.Equal("concurrent_writes must be at least 1, got 0", err.Error())
	}
}

func TestGetSource_WithStdinSource(t *testing.T) {
	assert := assert.New(t)

	supportedSources := []sourceconfig.ConfigPair{ConfigPair}

	t.Setenv("SOURCE_NAME", "stdin")
	t.Setenv("SOURCE_CONCURRENT_WRITES", "5")

	c, err := config.NewConfig()
	assert.NotNil(c)
	assert.Nil(err)

	source, err := sourceconfig.GetSource(c, supportedSources)
	assert.Nil(err)
	if assert.NotNil(source) {
		assert.Equal("stdin", source.GetID())
		assert.Equal(5, source.(*stdinSource).concurrentWrites)
	}
}
