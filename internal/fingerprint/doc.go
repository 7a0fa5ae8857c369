// Package fingerprint derives deterministic structural keys for values that
// carry no identity of their own. Sequences are joined with a separator,
// functions are named by the runtime, maps are JSON encoded and protobuf
// messages use their deterministic wire form. Structs are qualified by their
// type name, so two types never share a key. Pointers are followed, so a
// value and a pointer to it share a key. A slice, map or pointer met again
// while it is still being rendered contributes an empty element. Keys can
// optionally be digested into CIDs to bound their size.
package fingerprint
