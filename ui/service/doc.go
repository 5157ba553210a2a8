// Package service provides the shared business logic for the uderia
// web front end.
//
// The service layer is HTTP-agnostic and used by both the JSON API and
// SSR frontend handlers. This ensures consistency and avoids duplication.
//
// # Design
//
// The service layer:
//   - Wraps the uderia client for all operations
//   - Returns DTOs (Data Transfer Objects) optimized for UI display
//   - Never touches the multiplexer internals directly
package service
