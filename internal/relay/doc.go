// Package relay drives the gate-release relay output.
//
// The relay is a single boolean output: active means the start gate is
// released. On a Raspberry Pi the driver binds a GPIO line through the
// character device interface; anywhere else it falls back to an
// in-memory simulated output with identical semantics.
//
// Only the sequence engine mutates the relay during a run; the one
// exception is the forced deactivation issued by a stop request.
// All operations are idempotent.
package relay
