// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package awsclient

import (
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var validate = validator.New()

// httpClient is shared by every session so that idle connections are pooled
// across invocations
var httpClient = newHTTPClient()

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = transport.MaxIdleConns
	return &http.Client{Transport: transport}
}

// Settings holds everything needed to reach an AWS service on behalf of a block
type Settings struct {
	Region          string `mapstructure:"region" hcl:"region,optional" env:"AWS_REGION" validate:"required"`
	Endpoint        string `mapstructure:"endpoint" hcl:"endpoint,optional" env:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id" hcl:"access_key_id,optional" validate:"required_with=SecretAccessKey SessionToken"`
	SecretAccessKey string `mapstructure:"secret_access_key" hcl:"secret_access_key,optional" validate:"required_with=AccessKeyID SessionToken"`
	SessionToken    string `mapstructure:"session_token" hcl:"session_token,optional"`
	RoleARN         string `mapstructure:"role_arn" hcl:"role_arn,optional" env:"AWS_ROLE_ARN"`
}

// FromContext reads settings from the free-form context attached to an event.
// Keys which are not settings are ignored.
func FromContext(ctx map[string]interface{}) (*Settings, error) {
	s := &Settings{}
	if len(ctx) == 0 {
		return s, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           s,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(ctx); err != nil {
		return nil, errors.Wrap(err, "Failed to decode AWS settings from event context")
	}
	return s, nil
}

// Merge returns a copy of the settings with every non-empty field of o applied on top
func (s Settings) Merge(o *Settings) Settings {
	if o == nil {
		return s
	}
	if o.Region != "" {
		s.Region = o.Region
	}
	if o.Endpoint != "" {
		s.Endpoint = o.Endpoint
	}
	if o.AccessKeyID != "" || o.SecretAccessKey != "" {
		s.AccessKeyID = o.AccessKeyID
		s.SecretAccessKey = o.SecretAccessKey
		s.SessionToken = o.SessionToken
	}
	if o.RoleARN != "" {
		s.RoleARN = o.RoleARN
	}
	return s
}

// Validate checks that the settings are complete enough to build a session
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var result error
	for _, fe := range fieldErrs {
		result = multierror.Append(result, fmt.Errorf("%s failed on the '%s' check", fe.Field(), fe.Tag()))
	}
	return errors.Wrap(result, "Invalid AWS settings")
}

// NewSession builds an AWS session from the settings. Static credentials win over
// the default credential chain and a role ARN is assumed through STS on top of
// whichever credentials were resolved. All sessions share one HTTP client.
func NewSession(s *Settings) (*session.Session, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := aws.Config{
		Region:     aws.String(s.Region),
		HTTPClient: httpClient,
	}
	if s.Endpoint != "" {
		cfg.Endpoint = aws.String(s.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if s.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentials(s.AccessKeyID, s.SecretAccessKey, s.SessionToken)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
		Config:            cfg,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create AWS session")
	}

	if s.RoleARN != "" {
		sess = sess.Copy(&aws.Config{
			Credentials: stscreds.NewCredentials(sess, s.RoleARN),
		})
	}
	return sess, nil
}
