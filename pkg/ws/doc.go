// Package ws is the websocket transport in front of the delivery hub.
//
// The handshake endpoint authenticates the caller, upgrades the request,
// and attaches a hub connection joined to the caller's user namespace plus
// the category namespaces its role allows; the hub replays any offline
// backlog during the attach. Server→client frames are notification frames
// as JSON. Client→server frames are limited to connection lifecycle (join
// a namespace, acknowledge a receipt) — clients never author notification
// content, and any other frame closes the connection.
package ws
