// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package main

import (
	"github.com/snowplow-devops/aws-blocks/cmd/cli"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceconfig"
	sqssource "github.com/snowplow-devops/aws-blocks/pkg/source/sqs"
	stdinsource "github.com/snowplow-devops/aws-blocks/pkg/source/stdin"
)

func main() {
	// Make a slice of SourceConfigPairs supported for this build
	sourceConfigPairs := []sourceconfig.ConfigPair{stdinsource.ConfigPair, sqssource.ConfigPair}

	cli.RunCli(sourceConfigPairs)
}
