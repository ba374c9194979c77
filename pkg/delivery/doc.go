// Package delivery fans authorized messages out to live connections and
// hands individually-addressed messages to offline storage when the
// recipient is away.
//
// Connections group into namespaces joined at handshake. Delivery to one
// user with several open connections is fan-out, not either-or: every live
// connection in an authorized namespace gets its own copy. Sends are
// non-blocking against a bounded per-connection buffer; a slow consumer
// loses its own copy and never stalls anyone else.
//
// Attaching a connection drains the user's offline backlog and replays it
// in enqueue order before regular traffic resumes for that user.
package delivery
