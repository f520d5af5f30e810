// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package blockiface

import (
	"context"

	"github.com/aws/aws-sdk-go/aws/client"

	"github.com/snowplow-devops/aws-blocks/pkg/schema"
)

// Block describes the interface for exposing a single AWS API operation
type Block interface {
	Invoke(ctx context.Context, provider client.ConfigProvider, input []byte) ([]byte, error)
	InputSchema() *schema.Shape
	OutputSchema() *schema.Shape
	Service() string
	Operation() string
	GetID() string
}
