// Package storage provides the keyed object store. Items that carry an
// identity (a class ID or an ID) are stored one per key; all other items are
// grouped into buckets by their structural fingerprint so that equal-looking
// values can coexist.
package storage
