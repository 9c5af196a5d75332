package chat

import (
	"context"
	"time"
)

// Topic is the coarse category a message is filed under.
type Topic string

const (
	TopicCrops   Topic = "crops"
	TopicWeather Topic = "weather"
	TopicDisease Topic = "disease"
	TopicMarket  Topic = "market"
	TopicGeneral Topic = "general"
)

// Topics lists every topic the fallback table must cover.
var Topics = []Topic{TopicCrops, TopicWeather, TopicDisease, TopicMarket, TopicGeneral}

// Valid reports whether t is a known topic.
func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// Source tells the caller where a response came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

const (
	// LiveConfidence is reported for text obtained from the provider.
	LiveConfidence = 90
	// FallbackConfidence is reported for canned responses.
	FallbackConfidence = 40
)

// Request is a single user message.
type Request struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// Response is what the UI renders. Message is never empty.
type Response struct {
	Message    string `json:"message"`
	Confidence int    `json:"confidence"`
	Topic      Topic  `json:"topic"`
	Source     Source `json:"source"`
	Language   string `json:"language"`
	Reason     Reason `json:"reason,omitempty"`
}

// Generator performs the single outbound call to a generative model.
// Implementations should honor ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, message string) (string, error)
	Name() string
}

// Recorder receives resolution outcomes for metrics.
type Recorder interface {
	ObserveResolution(source, topic, reason string)
	ObserveProvider(provider, outcome string, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveResolution(string, string, string)      {}
func (nopRecorder) ObserveProvider(string, string, time.Duration) {}
