// Package offline queues individually-addressed notifications for users
// with no live connections, for replay on their next handshake.
//
// Entries carry a TTL and expire unreplayed. Drain is destructive and
// atomic per user: the backlog a handshake replays is removed in the same
// operation, so a message is delivered at most once even when two
// connections for the same user race.
//
// Three Storage implementations cover the usual deployments: MemoryStorage
// for single-node and tests, RedisStorage for shared ephemeral state, and
// PostgresStorage when backlogs must survive infrastructure restarts.
package offline
