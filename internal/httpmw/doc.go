// Package httpmw holds the middleware the public server is built from.
//
// httpserver.NewHandler composes them outermost first: recover, security
// headers, request id, client ip, rate limit, tracing, content headers,
// metrics, logger, access log. Query strings and user agents are kept out
// of logs.
package httpmw
