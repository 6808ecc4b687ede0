// Package api provides the HTTP REST API and WebSocket server for Driftline.
//
// It exposes authentication, user/post/file management, and real-time
// pub/sub channels to clients (demo front-ends, curl, WebSocket tools).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
