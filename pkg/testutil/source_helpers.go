// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"time"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
	"github.com/snowplow-devops/aws-blocks/pkg/source/sourceiface"
)

// ReadAndReturnMessages runs the read function of a source and collects every message
// it hands over until nothing new arrives for timeToWait, at which point the
// source is stopped
func ReadAndReturnMessages(source sourceiface.Source, timeToWait time.Duration) ([]*models.Message, error) {
	var successfulReads []*models.Message

	hitError := make(chan error, 1)
	msgReceived := make(chan *models.Message)

	sf := sourceiface.SourceFunctions{
		WriteToTarget: func(messages []*models.Message) error {
			for _, msg := range messages {
				msgReceived <- msg
				if msg.AckFunc != nil {
					msg.AckFunc()
				}
			}
			return nil
		},
	}

	go func() {
		if err := source.Read(&sf); err != nil {
			hitError <- err
		}
	}()

	for {
		select {
		case err := <-hitError:
			return successfulReads, err
		case msg := <-msgReceived:
			successfulReads = append(successfulReads, msg)
		case <-time.After(timeToWait):
			source.Stop()
			return successfulReads, nil
		}
	}
}
