// Package api serves document generation over HTTP.
//
// Routes:
//
//	GET  /healthz         liveness and build version
//	GET  /v1/ecosystems   supported ecosystem names
//	POST /v1/sbom         CycloneDX JSON for a project directory
//	POST /v1/graph        DOT or SVG dependency graph for a project directory
//
// Request paths are relative to the server's workspace root and are
// validated with [errors.ValidatePath]. Failures are returned as
// {"code": ..., "message": ...} with a status derived from the error code:
// INVALID_* maps to 400, NOTHING_DETECTED to 422.
package api
