package utils

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// NewFeedBackoff returns the exponential backoff used when (re)connecting
// to the host market data feed. Retries stop after MaxElapsedTime.
func NewFeedBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 5 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.1
	return b
}
