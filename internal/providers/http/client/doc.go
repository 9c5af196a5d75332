// Package client provides the outbound HTTP client used by model providers.
//
// It wraps go-resty with a per-client rate limiter and an optional circuit
// breaker, enabled by setting Config.Breaker.
// Transport comes from hashicorp/go-retryablehttp's pooled client, but
// retries are disabled: the chat resolver makes exactly one call per
// message and falls back on the first failure.
//
// Non-2xx responses are returned as *StatusError so providers can map the
// status to a failure reason. Only transport errors, 429 and 5xx count
// against the breaker; a 4xx means the upstream is healthy and the request
// or credentials are wrong. Without a breaker every Do sends a request.
//
// Example Usage:
//
//	c := client.NewClient(client.DefaultConfig("chat-api"))
//	c.SetBearerAuth(apiKey)
//	resp, err := c.Do(ctx, func(req *resty.Request) (*resty.Response, error) {
//		return req.SetBody(payload).Post(url)
//	})
package client
