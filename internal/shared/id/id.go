// Package id provides ID generation and propagation for the backend.
//
// IDs are prefixed ULIDs ("req_01J...") so they sort by creation time and
// read clearly in logs. Request IDs travel through context.Context so that
// the chat resolver can tag its log lines without depending on the HTTP
// layer.
package id

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestID identifies one API request or one WebSocket message.
type RequestID string

// ConnectionID identifies a WebSocket connection.
type ConnectionID string

const (
	RequestPrefix    = "req"
	ConnectionPrefix = "conn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewConnectionID generates a new connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(ConnectionPrefix))
}

func (id RequestID) String() string    { return string(id) }
func (id ConnectionID) String() string { return string(id) }

// IsValid reports whether s is a ULID, with or without a prefix.
func IsValid(s string) bool {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	_, err := ulid.Parse(s)
	return err == nil
}

type requestKey struct{}

// WithRequest returns a copy of ctx carrying the request ID.
func WithRequest(ctx context.Context, rid RequestID) context.Context {
	return context.WithValue(ctx, requestKey{}, rid)
}

// RequestFromContext returns the request ID in ctx, or "" if none.
func RequestFromContext(ctx context.Context) RequestID {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(requestKey{}).(RequestID)
	return rid
}
