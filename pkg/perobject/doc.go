// Package perobject attaches typed key-value attributes to object identities
// owned by an external simulation host.
//
// Each live object identity gets at most one ObjectStorage, created lazily on
// first access and held by a Registry. A storage keeps four independent maps
// (int32, float32, string and opaque values). Int, float and string entries
// carry a persist flag that controls whether they are written into the host's
// save container; opaque entries carry an optional cleanup function and are
// never saved or cloned.
//
// The host drives storage lifetime through a Bridge: object and area
// destruction, player reconnect (eat TURD), player disconnect (drop TURD) and
// object/creature save and load. Each Bridge handler calls through to the
// host's native behaviour and then applies the storage action.
//
// Concurrency
//
// Nothing in this package locks. The host dispatches lifecycle events and API
// calls from a single simulation thread; callers running on more than one
// goroutine must serialize access themselves.
package perobject
