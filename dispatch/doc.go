// Package dispatch runs reply work for webhook deliveries off the request
// path. Each delivery gets its own goroutine; messages inside a delivery are
// answered in order.
package dispatch
