// Package server exposes the file store and the access log over HTTP.
//
// Every request except the health check and the log stream is written to the
// access log before its handler runs. Handlers translate classified errors
// from the core packages into status codes:
//
//	InvalidName, ForbiddenCharacters, PathEscape,
//	ContentTooLarge, IsADirectory            400
//	NotFound                                 404
//	PermissionDenied                         403
//	InsufficientSpace                        507
//	anything else                            500
//
// Responses are JSON. Error bodies carry {error, code}.
package server
