// Package main is the entry point for the KrishiMitra backend.
//
// The server answers farmers' chat messages through a generative model and
// falls back to canned, language-aware advice whenever the model cannot
// answer. It also serves the crop and mandi price dashboard data.
//
// Configuration:
//   - Environment variables (12-factor), optionally from a .env file
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Serve the API (default command)
//	krishimitra serve --port 8000
//
//	# Resolve one message from the terminal
//	krishimitra ask --lang hi "टमाटर की पत्तियों पर धब्बे"
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
