// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package target

import (
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/snowplow-devops/aws-blocks/pkg/awsclient"
)

// newAWSSession builds the session used by the AWS backed targets. Credentials
// come from the default chain with an optional role to assume.
func newAWSSession(region string, roleARN string, endpoint string) (*session.Session, error) {
	return awsclient.NewSession(&awsclient.Settings{
		Region:   region,
		RoleARN:  roleARN,
		Endpoint: endpoint,
	})
}
