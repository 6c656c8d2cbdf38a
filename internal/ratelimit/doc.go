// Package ratelimit limits per-client page traffic and the number of open
// slideshow sockets per client.
//
// State is in memory and local to one instance. It is a backstop against a
// single noisy client, not against distributed floods; those belong to the
// load balancer or CDN.
package ratelimit
