// Package emitter provides the synchronous change-notification bus used by
// the attrs model layer.
//
// Events are plain strings. Model change notifications follow a two-level
// convention: the generic "change" event fires for every property change,
// and "change:<property>" fires for that property alone. ChangeEvent
// normalizes a bare property name into its specific event name.
//
// Subscriptions are identified by (event, subscriber ID) pairs. IDs come
// from NextID and allow a subscriber to tear down everything it wired with
// a single OffAll call.
package emitter
