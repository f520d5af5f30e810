// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package schema

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

type testTag struct {
	_ struct{} `type:"structure"`

	Key   *string `type:"string" required:"true"`
	Value *string `type:"string"`
}

type testNode struct {
	_ struct{} `type:"structure"`

	Name     *string     `type:"string"`
	Children []*testNode `type:"list"`
}

type testInput struct {
	_ struct{} `type:"structure"`

	Id        *string            `type:"string" required:"true"`
	Count     *int64             `type:"integer"`
	Size      *int64             `type:"long"`
	Enabled   *bool              `type:"boolean"`
	Ratio     *float64           `type:"double"`
	Password  *string            `type:"string" sensitive:"true"`
	Engine    *string            `type:"string" enum:"EngineType"`
	Created   *time.Time         `type:"timestamp"`
	Payload   []byte             `type:"blob"`
	Document  aws.JSONValue      `type:"jsonvalue"`
	Tags      []*testTag         `locationNameList:"Tag" type:"list"`
	Names     []*string          `type:"list"`
	Labels    map[string]*string `type:"map"`
	Root      *testNode          `type:"structure"`
	untouched string
}

func TestOf(t *testing.T) {
	assert := assert.New(t)

	s := Of(&testInput{})
	if !assert.NotNil(s) {
		return
	}
	assert.Equal("testInput", s.Name)
	assert.Equal(14, len(s.Fields))
	assert.Equal([]string{"Id"}, s.Required())

	expected := map[string]*Field{
		"Id":       {Name: "Id", Type: "string", Required: true},
		"Count":    {Name: "Count", Type: "integer"},
		"Size":     {Name: "Size", Type: "long"},
		"Enabled":  {Name: "Enabled", Type: "boolean"},
		"Ratio":    {Name: "Ratio", Type: "double"},
		"Password": {Name: "Password", Type: "string", Sensitive: true},
		"Engine":   {Name: "Engine", Type: "string", Enum: "EngineType"},
		"Created":  {Name: "Created", Type: "timestamp"},
		"Payload":  {Name: "Payload", Type: "blob"},
		"Document": {Name: "Document", Type: "jsonvalue"},
		"Tags": {Name: "Tags", Type: "list", Member: &Field{
			Type: "structure",
			Fields: []*Field{
				{Name: "Key", Type: "string", Required: true},
				{Name: "Value", Type: "string"},
			},
		}},
		"Names":  {Name: "Names", Type: "list", Member: &Field{Type: "string"}},
		"Labels": {Name: "Labels", Type: "map", Member: &Field{Type: "string"}},
	}

	for name, want := range expected {
		got, ok := s.Lookup(name)
		if assert.True(ok, name) {
			if !assert.Equal(want, got) {
				t.Log(spew.Sdump(got))
			}
		}
	}

	_, ok := s.Lookup("untouched")
	assert.False(ok)
}

func TestOf_Recursive(t *testing.T) {
	assert := assert.New(t)

	s := Of(testInput{})
	root, ok := s.Lookup("Root")
	if !assert.True(ok) {
		return
	}

	assert.Equal("structure", root.Type)
	assert.Equal(2, len(root.Fields))

	children := root.Fields[1]
	assert.Equal("Children", children.Name)
	assert.Equal("list", children.Type)
	if assert.NotNil(children.Member) {
		assert.Equal("structure", children.Member.Type)
		assert.Nil(children.Member.Fields)
	}
}

func TestOf_NotAStruct(t *testing.T) {
	assert := assert.New(t)

	assert.Nil(Of("string"))
	assert.Nil(Of(nil))
}

func TestOf_SDKShape(t *testing.T) {
	assert := assert.New(t)

	s := Of(&sqs.SendMessageInput{})
	assert.Equal("SendMessageInput", s.Name)
	assert.ElementsMatch([]string{"MessageBody", "QueueUrl"}, s.Required())

	queueURL, ok := s.Lookup("QueueUrl")
	assert.True(ok)
	assert.Equal("string", queueURL.Type)

	attrs, ok := s.Lookup("MessageAttributes")
	if assert.True(ok) {
		assert.Equal("map", attrs.Type)
		assert.Equal("MessageAttribute", attrs.LocationName)
		assert.Equal("structure", attrs.Member.Type)
	}
	assert.Empty(queueURL.LocationName)

	empty := Of(&sqs.ListQueuesInput{})
	assert.Empty(empty.Required())
}
