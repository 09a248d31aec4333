// Package hq synchronizes finance transactions and guest profiles with the head office.
//
// Two transports are provided: [HTTPSyncer] posts to the ESB, which forwards to the head office,
// and [NATSSyncer] publishes to NATS subjects. [Async] wraps a syncer for fire-and-forget pushes.
package hq
