// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package sourceconfig

import (
	"fmt"
	"strings"

	"github.com/snowplow-devops/aws-blocks/config"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

// ConfigPair contains the name of a source and the pluggable component building it
type ConfigPair struct {
	Name   string
	Handle config.Pluggable
}

// GetSource builds the source named in the configuration from the pairs supported by this build
func GetSource(c *config.Config, supportedSources []ConfigPair) (sourceiface.Source, error) {
	useSource := c.Data.Source.Use

	sourceList := make([]string, 0, len(supportedSources))
	for _, pair := range supportedSources {
		if pair.Name != useSource.Name {
			sourceList = append(sourceList, pair.Name)
			continue
		}

		component, err := c.CreateComponent(pair.Handle, &config.DecoderOptions{
			Input: useSource.Body,
		})
		if err != nil {
			return nil, err
		}

		if s, ok := component.(sourceiface.Source); ok {
			return s, nil
		}
		return nil, fmt.Errorf("could not interpret source configuration for %q", useSource.Name)
	}

	return nil, fmt.Errorf("Invalid source found: %s. Supported sources in this build: %s.", useSource.Name, strings.Join(sourceList, ", "))
}
