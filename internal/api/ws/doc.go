// Package ws serves chat over a WebSocket for the mobile client, which
// keeps one connection open for a whole conversation.
//
// Each inbound frame is resolved on its own, exactly like POST /chat, and
// answered with one frame. Frames on a connection are answered in order.
//
// Message Types (Client → Server):
//   - chat: {"type":"chat","message":"...","language":"hi"}; type may be omitted
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - system: welcome frame with the connection ID
//   - answer: a chat response plus the request ID
//   - pong: reply to ping
//   - error: malformed frame or unknown type
//
// Example Usage:
//
//	handler := ws.NewHandler(resolver, logger, metrics)
//	router.GET("/chat/stream", handler.HandleConnection)
//	defer handler.Shutdown()
package ws
