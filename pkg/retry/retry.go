// PROPRIETARY AND CONFIDENTIAL
//
// Unauthorized copying of this file via any medium is strictly prohibited.
//
// Copyright (c) 2020-2022 Snowplow Analytics Ltd. All rights reserved.

package retry

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Exponential calls f until it succeeds or the attempts are exhausted. The
// sleep between two attempts doubles every time, with up to half of it added
// as jitter. The last error is returned wrapped with the prefix.
func Exponential(attempts int, sleep time.Duration, prefix string, f func() error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = f(); err == nil {
			return nil
		}
		if attempt >= attempts {
			return errors.Wrap(err, prefix)
		}

		log.WithFields(log.Fields{"attempt": attempt, "attempts": attempts, "error": err}).Warnf("Retrying %s", prefix)

		wait := sleep
		if sleep > 0 {
			wait += time.Duration(rand.Int63n(int64(sleep))) / 2
		}
		time.Sleep(wait)
		sleep *= 2
	}
}
