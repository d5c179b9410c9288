// Package feed serves live update frames over WebSocket. It bridges the
// stream broker to connected frontends so projection changes and
// operation lifecycle events reach every open tab without polling.
//
// A client connects, sends a hello frame carrying its session token and
// preferred wire format (json or msgpack), then subscribes to the
// topics it renders. Events flow server→client; the client sends only
// control frames (subscribe, unsubscribe, ping, credit top-ups).
// Delivery is flow-controlled: each event spends one credit and a
// client that stops topping up stops receiving.
package feed
