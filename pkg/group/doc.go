// Package group defines the capability set a configuration group hands to
// the persistence engine, and a concrete field-list implementation of it.
//
// A Handler owns everything group-specific: streaming the group's fields as
// text, reading and setting a single field, serializing the group's values
// to and from their binary payload, and describing its own structure (the
// schema) so the engine can tag stored payloads with a schema CRC.
//
// Def is the stock implementation. Each concrete configuration struct builds
// a Def by declaring its fields explicitly, in order, with typed accessors;
// there is no reflection-driven registration. The binary payload and the
// schema self-description use deterministic CBOR so the schema CRC is stable
// for a given field list and build.
package group
