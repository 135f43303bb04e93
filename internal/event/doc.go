// Package event provides the listener registry for the three input channels.
//
// A Registry holds one ordered listener table per channel:
//
//	key    key.Code   → []KeyListener    func(input.Unit) error
//	mouse  mouse.Mask → []MouseListener  func(row, col int, m mouse.Mask) error
//	char   input.Unit → []CharListener   func(input.Unit) error
//
// # Registration
//
// On* appends a listener and returns its ListenerID. Insertion order is
// dispatch order and nothing is deduplicated: registering the same function
// twice yields two IDs and two calls per event. Off* removes exactly the
// registration named by an ID and returns ErrNotFound when there is none.
//
// Key identifiers go through key.Canonical on both paths, so a listener
// registered under key.Ctrl|key.Q is found by a raw 0x11 byte.
//
// # Dispatch
//
// Dispatch* snapshots the listener sequence before calling it, so
// listeners may register or unregister while being dispatched; the change
// takes effect on the next event.
//
// Every channel is fail-fast: the first listener that returns an error or
// panics stops the dispatch. The failure comes back as a *ListenerError
// naming the channel, event and listener; a panic is wrapped in a
// *PanicError inside it.
//
//	reg := event.NewRegistry()
//	id := reg.OnKey(key.Ctrl|key.Q, func(input.Unit) error {
//	    mux.Stop()
//	    return nil
//	})
//	defer reg.OffKey(key.Ctrl|key.Q, id)
//
// # Thread Safety
//
// Registry is safe for concurrent use.
package event
