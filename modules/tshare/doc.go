// Package tshare implements the fair-sharing throughput model used to
// compute completion times for a set of in-flight activities competing
// for one shared resource.
//
// Model is the O(log n) "fast algorithm": a single monotonic total-work
// accumulator plus a per-activity finish-work key, kept in a heap ordered
// by that key. NaiveModel is the O(n) reference implementation, useful as
// a cross-check in tests but not meant for production use.
//
// Neither type is safe for concurrent use; like the desim kernel they are
// single-threaded by design, and a domain component typically owns one
// Model per shared resource (a link, a disk, a CPU) and drives it from
// inside its own event handler.
package tshare
