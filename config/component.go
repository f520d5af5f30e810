// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

// ComponentConfigurable provides the configuration structure of a component,
// already filled with its defaults, for a Decoder to write onto.
type ComponentConfigurable interface {
	ProvideDefault() (interface{}, error)
}

// ComponentCreator builds a component (a source, target or stats receiver)
// from its decoded configuration.
type ComponentCreator interface {
	Create(i interface{}) (interface{}, error)
}

// Pluggable is implemented by every component which can be selected by name
// in the configuration.
type Pluggable interface {
	ComponentConfigurable
	ComponentCreator
}

// DecodingHandler decodes the configuration of a component
type DecodingHandler func(c ComponentConfigurable, d Decoder) (interface{}, error)

// WithDecoderOptions returns a DecodingHandler closed over some DecoderOptions.
func WithDecoderOptions(opts *DecoderOptions) DecodingHandler {
	return func(c ComponentConfigurable, d Decoder) (interface{}, error) {
		return Configure(c, d, opts)
	}
}

// Configure decodes onto the defaults of the component
func Configure(c ComponentConfigurable, d Decoder, opts *DecoderOptions) (interface{}, error) {
	cfg, err := c.ProvideDefault()
	if err != nil {
		return nil, err
	}

	if err = d.Decode(opts, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
