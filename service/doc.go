// Package service orchestrates the core components of the
// matching engine: order book, request journal, and state store.
//
// It provides a clean API for placing, cancelling, and
// querying orders, decoupled from network transports like HTTP.
package service
