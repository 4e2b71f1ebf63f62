// Package api handles incoming HTTP requests, request validation and
// response formatting for the question import endpoints. Handlers translate
// HTTP concerns into ImportService calls and map service errors onto status
// codes without leaking internal details.
package api
