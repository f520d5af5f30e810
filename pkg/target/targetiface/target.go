// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package targetiface

import (
	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// Target describes the interface for how to push the output of block invocations
type Target interface {
	Write(messages []*models.Message) (*models.TargetWriteResult, error)
	Open()
	Close()
	MaximumAllowedMessageSizeBytes() int
	GetID() string
}
