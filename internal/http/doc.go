// Package http exposes the assistant over HTTP.
//
// The router serves the following endpoints:
//   - GET /health: liveness probe. Response: {"status":"ok","timestamp"}.
//   - GET /webhook: WhatsApp subscription handshake. Echoes hub.challenge when
//     hub.verify_token matches the configured token.
//   - POST /webhook: WhatsApp message notifications. The X-Hub-Signature-256
//     header is checked when an app secret is configured. Text messages are
//     answered asynchronously through the configured sender after a 200.
//   - POST /messages: local integration endpoint. Body: {"id","from","text"}.
//     Response: {"reply","command","duplicate","error_kind","trace_id"}.
//
// Request/response DTOs live alongside their handlers.
package http
