// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package cmd

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

// ServerlessRequestHandler is a common function for all
// serverless implementations to leverage. Block invocations are bound to ctx.
func ServerlessRequestHandler(ctx context.Context, messages []*models.Message) error {
	cfg, sentryEnabled, err := Init()
	if err != nil {
		return err
	}
	if sentryEnabled {
		defer sentry.Flush(2 * time.Second)
	}

	// --- Setup structs

	t, err := cfg.GetTarget()
	if err != nil {
		return err
	}
	t.Open()
	defer t.Close()

	ft, err := cfg.GetFailureTarget()
	if err != nil {
		return err
	}
	ft.Open()
	defer ft.Close()

	d, err := cfg.GetDispatcher()
	if err != nil {
		return err
	}

	tags, err := cfg.GetTags()
	if err != nil {
		return err
	}
	o, err := cfg.GetObserver(tags)
	if err != nil {
		return err
	}
	o.Start()
	defer o.Stop()

	// --- Process events

	return SourceWriteFunc(ctx, d, t, ft, o, cfg.Data.Retry, nil)(messages)
}
