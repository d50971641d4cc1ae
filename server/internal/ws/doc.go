// Package ws implements the WebSocket status stream of the ISS tracker.
//
// Hub manages a set of connected clients and broadcasts the dataset status
// (snapshot id, load time, record counts) to all of them on a configurable
// interval, and immediately after every successful reload.
//
// New(src, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker and blocks until ctx is cancelled,
// then closes all active connections.
// Hub.Broadcast(event) pushes the current status to every client.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket and sends the
// current status immediately on connect.
//
// Message format sent to clients:
//
//	{
//	  "event": "status" | "reload",
//	  "data":  { /* same schema as GET /api/v1/status */ }
//	}
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/stream.
package ws
