// Package conf implements the configuration persistence engine.
//
// Application code registers named configuration groups, each backed by a
// group.Handler. The engine serves a text command protocol under the fixed
// command word "conf":
//
//	conf enumerate
//	conf get <group>.<field>
//	conf set <group>.<field> <value>
//	conf load
//	conf write
//	conf default
//
// load and write move the whole image between the registered handlers and a
// flash region as a sequence of self-describing records (pkg/record), each
// tagged with a CRC32 of the handler's schema so stored payloads from a
// different build of the group are silently discarded instead of misapplied.
//
// # Concurrency
//
// The engine is single-flight: exactly one command may be in progress, and a
// new command must not start before the previous command's completion
// callback has fired. There is no internal queueing and no locking; the
// registry is read-only once the registration phase is over. Suspension
// happens only at asynchronous write boundaries (the response stream, a
// handler's streaming Read/Enumerate).
//
// # Durability
//
// write erases the region before the new image is laid down and makes no
// atomicity promise: a crash mid-write leaves a corrupt image, which a later
// load treats as empty or partial. This is an accepted limitation of the
// sequential single-region layout, not a recoverable error.
package conf
