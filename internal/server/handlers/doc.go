// Package handlers contains HTTP handlers for the Code Lens API.
//
// This package provides handlers for:
//   - Repository analysis requests (synchronous and queued)
//   - Repository record lookups
//   - Health checks
//   - Shared response helper functions
//
// All handlers report failures through the foundation/errors HTTP adapter and
// respond with the types in server/responses.
package handlers
