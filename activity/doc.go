// Package activity keeps a seller session fresh while the seller interacts
// with a page.
//
// A Tracker subscribes to pointer movement and key press signals from a
// SignalSource and refreshes the session's last activity timestamp for each
// one. Handlers never block the signal source: signals are coalesced into a
// single pending refresh that a worker goroutine performs. Bus is an in-memory
// SignalSource used by the HTTP front end and by tests.
package activity
