// Package delivery turns queued notification payloads into transport sends.
//
// A Worker routes each payload to the transport.Sender registered for its
// channel, throttles sends per channel and bounds every send with a timeout.
// Worker.Handler plugs it into the notification queue; Worker.Deliver can
// also be called directly for synchronous last-resort delivery.
package delivery
