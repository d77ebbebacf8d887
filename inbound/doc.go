// Package inbound serves the provider-facing HTTP surface: the subscription
// handshake and delivery callbacks.
package inbound
