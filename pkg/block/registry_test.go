// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/snowplow-devops/aws-blocks/pkg/block/blockiface"
)

func ids(blocks []blockiface.Block) []string {
	var res []string
	for _, b := range blocks {
		res = append(res, b.GetID())
	}
	return res
}

func TestDefaultRegistry_Catalogue(t *testing.T) {
	assert := assert.New(t)

	r := NewDefaultRegistry()

	assert.Equal(76, len(r.List("")))
	assert.Equal(26, len(r.List("cloudfront")))
	assert.Equal(30, len(r.List("rds")))
	assert.Equal(20, len(r.List("sqs")))
	assert.Empty(r.List("s3"))

	for _, b := range r.List("") {
		assert.Equal(b.Service()+"."+b.Operation(), b.GetID())

		// Every block is bound to the request and response of its own operation
		if assert.NotNil(b.InputSchema(), b.GetID()) {
			assert.Equal(b.Operation()+"Input", b.InputSchema().Name, b.GetID())
		}
		if assert.NotNil(b.OutputSchema(), b.GetID()) {
			assert.Equal(b.Operation()+"Output", b.OutputSchema().Name, b.GetID())
		}
	}

	listed := ids(r.List(""))
	assert.True(strings.Compare(listed[0], listed[1]) < 0)
	assert.Contains(listed, "cloudfront.CreateDistributionWithTags")
	assert.Contains(listed, "rds.RestoreDBInstanceFromDBSnapshot")
	assert.Contains(listed, "sqs.ChangeMessageVisibilityBatch")
}

func TestRegistry_Duplicate(t *testing.T) {
	assert := assert.New(t)

	blocks := SQSBlocks(NewSQSClient)
	r, err := NewRegistry(append(blocks, blocks[0])...)
	assert.Nil(r)
	if assert.NotNil(err) {
		assert.Equal(`duplicate block id "sqs.AddPermission"`, err.Error())
	}
}

func TestRegistry_Get(t *testing.T) {
	assert := assert.New(t)

	r := NewDefaultRegistry()

	b, err := r.Get("rds.DescribeDBInstances")
	assert.Nil(err)
	assert.Equal("rds", b.Service())
	assert.Equal("DescribeDBInstances", b.Operation())

	b, err = r.Get("rds.DropEverything")
	assert.Nil(b)
	assert.Equal(ErrUnknownBlock, errors.Cause(err))
	assert.Equal("rds.DropEverything: unknown block", err.Error())
}

func TestRegistry_Enable(t *testing.T) {
	assert := assert.New(t)

	r := NewDefaultRegistry()
	assert.Nil(r.Enable([]string{"sqs.*", "rds.Describe*"}))

	assert.True(r.IsEnabled("sqs.SendMessage"))
	assert.True(r.IsEnabled("rds.DescribeEvents"))
	assert.False(r.IsEnabled("rds.DeleteDBInstance"))
	assert.False(r.IsEnabled("cloudfront.ListDistributions"))

	assert.Equal(20, len(r.List("sqs")))
	assert.Equal(7, len(r.List("rds")))
	assert.Empty(r.List("cloudfront"))

	b, err := r.Get("rds.DeleteDBInstance")
	assert.Nil(b)
	assert.Equal(ErrBlockDisabled, errors.Cause(err))

	assert.Nil(r.Enable(nil))
	assert.Equal(76, len(r.List("")))

	assert.Nil(r.Enable([]string{"*"}))
	assert.Equal(76, len(r.List("")))
}

func TestRegistry_EnableInvalidPattern(t *testing.T) {
	assert := assert.New(t)

	r := NewDefaultRegistry()
	err := r.Enable([]string{"sqs.[Send"})
	if assert.NotNil(err) {
		assert.Contains(err.Error(), `Failed to compile block pattern "sqs.[Send"`)
	}
}
