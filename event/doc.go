// Package event routes device input and frame time to a running guest.
//
// The Bridge holds a registration table over a closed set of event kinds
// (pointer, key, text input, animation). A guest opts into kinds at run time
// through the host registration export; the front end feeds raw events into
// the bridge, which converts pointer offsets to logical coordinates, applies
// the editor-focus rule for keys, and invokes the matching guest callbacks.
// Deliveries for kinds the guest never registered are dropped.
//
// The Scheduler is the single cooperative animation loop. A FrameClock
// delivers timestamps one tick at a time; the first tick after Start defines
// elapsed time zero, and once the loop is stopped the guest is invoked at
// most once more (a tick that was already in flight) and no further tick is
// ever requested.
//
// Both types are confined to the driver goroutine (the terminal update loop,
// the session mailbox, or a test body). Clock implementations must deliver
// ticks on that same goroutine.
package event
