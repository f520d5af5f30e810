// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package block

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/snowplow-devops/aws-blocks/pkg/schema"
)

// validatable is implemented by every SDK request type
type validatable interface {
	Validate() error
}

// operation is a block bound to one SDK method. C is the service client
// interface, I and O the request and response types.
type operation[C any, I any, O any] struct {
	service   string
	name      string
	newClient func(client.ConfigProvider) C
	call      func(C, aws.Context, *I, ...request.Option) (*O, error)

	inputSchema  *schema.Shape
	outputSchema *schema.Shape

	log *log.Entry
}

func newOperation[C any, I any, O any](
	service string,
	name string,
	newClient func(client.ConfigProvider) C,
	call func(C, aws.Context, *I, ...request.Option) (*O, error),
) *operation[C, I, O] {
	id := fmt.Sprintf("%s.%s", service, name)

	return &operation[C, I, O]{
		service:      service,
		name:         name,
		newClient:    newClient,
		call:         call,
		inputSchema:  schema.Of(new(I)),
		outputSchema: schema.Of(new(O)),
		log:          log.WithFields(log.Fields{"block": id, "cloud": "AWS"}),
	}
}

// Invoke decodes the input into the request, builds a service client from the
// provider and calls the operation once. The response is returned as JSON.
func (o *operation[C, I, O]) Invoke(ctx context.Context, provider client.ConfigProvider, input []byte) ([]byte, error) {
	req := new(I)
	if err := decodeInput(input, req); err != nil {
		return nil, errors.Wrapf(err, "%s: failed to decode input", o.GetID())
	}

	if v, ok := interface{}(req).(validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, errors.Wrap(err, o.GetID())
		}
	}

	o.log.Debug("Calling AWS ...")

	res, err := o.call(o.newClient(provider), ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, o.GetID())
	}

	out, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: failed to encode output", o.GetID())
	}
	return out, nil
}

// InputSchema returns the shape of the request
func (o *operation[C, I, O]) InputSchema() *schema.Shape {
	return o.inputSchema
}

// OutputSchema returns the shape of the response
func (o *operation[C, I, O]) OutputSchema() *schema.Shape {
	return o.outputSchema
}

// Service returns the AWS service name
func (o *operation[C, I, O]) Service() string {
	return o.service
}

// Operation returns the AWS API operation name
func (o *operation[C, I, O]) Operation() string {
	return o.name
}

// GetID returns the block id
func (o *operation[C, I, O]) GetID() string {
	return fmt.Sprintf("%s.%s", o.service, o.name)
}

// decodeInput leaves req untouched for an empty or null input
func decodeInput(input []byte, req interface{}) error {
	trimmed := bytes.TrimSpace(input)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return err
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return errors.New("unexpected data after the input object")
	}
	return nil
}
