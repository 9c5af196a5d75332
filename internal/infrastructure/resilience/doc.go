/*
Package resilience provides a circuit breaker for outbound model calls.

# Overview

The breaker counts upstream failures and, once tripped, rejects calls
immediately so the resolver answers from its canned table without waiting
on the model. Providers only use it when AI_CIRCUIT_BREAKER is set; by
default every chat message reaches the model.

# Usage

	breaker := resilience.New("chat-api", resilience.Settings{
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errRejected)
		},
	})

	text, err := resilience.Call(breaker, func() (string, error) {
		return client.Send(ctx, message)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open
*/
package resilience
