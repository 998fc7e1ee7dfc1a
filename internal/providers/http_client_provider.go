package providers

import (
	"leetfresh/internal/structures"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

func NewHTTPClientProvider(conf *structures.Config) *http.Client {
	return &http.Client{
		Timeout: conf.LeetCode.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

// BreakerFailure reports whether err should count against the breaker.
// It is set by the caller package so that only transport failures trip it.
type BreakerFailure func(err error) bool

func NewBreakerProvider(conf *structures.Config, logger Logger, isFailure BreakerFailure) *gobreaker.CircuitBreaker {
	bc := conf.Breaker
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "leetcode",
		MaxRequests: bc.MaxRequests,
		Interval:    bc.Interval,
		Timeout:     bc.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < bc.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnf(TypeRemote, "Circuit breaker '%s' state changed from %s to %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isFailure == nil || !isFailure(err)
		},
	})
}
