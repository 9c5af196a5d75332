// Package providers groups the generative model backends behind
// chat.Generator.
//
// Available Providers:
//   - gemini: Google Gemini through the genai SDK
//   - chatapi: any endpoint speaking the Cohere v2 /chat JSON shape
//   - http/client: shared outbound client (resty, rate limiter, breaker)
//
// With no API key configured no provider is built and the resolver answers
// every message from its fallback table.
package providers
