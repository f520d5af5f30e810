// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package config

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Decoder is the interface that wraps the Decode method.
type Decoder interface {
	// Decode decodes onto target given DecoderOptions.
	// The target argument must be a pointer to an allocated structure.
	Decode(opts *DecoderOptions, target interface{}) error
}

// DecoderOptions unifies the input of the available Decoders.
// Prefix is only read from the environment and Input only from HCL, so the
// zero value is usable by both.
type DecoderOptions struct {
	Prefix string
	Input  hcl.Body
}

// envDecoder decodes a target from environment variables.
type envDecoder struct{}

// Decode populates target from the environment, honouring the prefix of the
// options. A nil target is left alone.
func (e *envDecoder) Decode(opts *DecoderOptions, target interface{}) error {
	if target == nil {
		return nil
	}

	var prefix string
	if opts != nil {
		prefix = opts.Prefix
	}

	if err := env.Parse(target, env.Options{Prefix: prefix}); err != nil {
		return errors.Wrap(err, "Failed to decode configuration from environment")
	}
	return nil
}

// hclDecoder decodes a target from an HCL body.
type hclDecoder struct {
	EvalContext *hcl.EvalContext
}

// Decode populates target given the HCL input of the options.
// A nil input means there is nothing to decode and a nil target
// is not decodable, both leave the target unaffected.
func (h *hclDecoder) Decode(opts *DecoderOptions, target interface{}) error {
	if opts == nil {
		return errors.New("missing DecoderOptions for hclDecoder")
	}

	src := opts.Input
	if src == nil || target == nil {
		return nil
	}

	diag := gohcl.DecodeBody(src, h.EvalContext, target)
	if len(diag) > 0 {
		return diag
	}

	return nil
}

// CreateHclContext creates the *hcl.EvalContext used when decoding HCL.
// Environment variables can be referenced either as `env("AWS_REGION")`
// or as `env.AWS_REGION`.
func CreateHclContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": envFunc(),
		},
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVarsMap(os.Environ())),
		},
	}
}

// envFunc returns the value of the environment variable named by its only argument
func envFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{
				Name:         "key",
				Type:         cty.String,
				AllowNull:    false,
				AllowUnknown: false,
			},
		},
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			return cty.StringVal(os.Getenv(args[0].AsString())), nil
		},
	})
}

func envVarsMap(environ []string) map[string]cty.Value {
	envMap := make(map[string]cty.Value)
	for _, s := range environ {
		kv := strings.SplitN(s, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		envMap[kv[0]] = cty.StringVal(kv[1])
	}

	return envMap
}
