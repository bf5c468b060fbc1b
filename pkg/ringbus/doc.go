// Package ringbus implements a shared-memory inter-process publish/subscribe
// transport for fixed-layout message types. Publishers write values into a
// shared ring buffer; subscribers in separate OS processes read them with
// sub-microsecond latency.
//
// A topic's value type T must be a fixed-layout, trivially-copyable struct:
// identical size and field layout in every participating process, and free
// of absolute pointers (relative offsets within T are fine - this package
// copies T's raw bytes in place, it never dereferences pointers inside it).
// unsafe.Sizeof(T) is persisted in the region's header and checked against
// every later joiner's T.
//
// Delivery is latest-only: a subscriber observes the most recently
// published message on each poll and may silently skip intermediate
// messages superseded before it polls. Publishers never block.
package ringbus
