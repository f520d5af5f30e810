// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/twinj/uuid"

	"github.com/snowplow-devops/aws-blocks/pkg/models"
)

const charset = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	seededRand *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// GenRandomString can produce a random string of any provided length which is
// useful for testing situations that might have byte limitations
func GenRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GetTestMessages will return an array of messages ready to be used for testing
// targets and sources
func GetTestMessages(count int, body string, ackFunc func()) []*models.Message {
	var messages []*models.Message
	for i := 0; i < count; i++ {
		messages = append(messages, &models.Message{
			Data:         []byte(body),
			PartitionKey: uuid.NewV4().String(),
			AckFunc:      ackFunc,
		})
	}
	return messages
}

// GetTestEventMessages returns messages carrying trigger events for the given
// block with sequential ids ("event-0", "event-1", ...)
func GetTestEventMessages(count int, block string, input string, ackFunc func()) []*models.Message {
	var messages []*models.Message
	for i := 0; i < count; i++ {
		body := fmt.Sprintf(`{"id":"event-%d","block":%q,"input":%s}`, i, block, input)
		messages = append(messages, &models.Message{
			Data:         []byte(body),
			PartitionKey: uuid.NewV4().String(),
			TimePulled:   time.Now().UTC(),
			AckFunc:      ackFunc,
		})
	}
	return messages
}
