// Package realtime delivers notifications to connected users over websockets.
//
// A Registry tracks every live connection per user together with the roles
// resolved at handshake time. The Router decides which connections receive an
// event: NEW_USER events go to administrators only, targeted events go to the
// target user and are shadowed to every connected administrator, and anything
// else is broadcast. The Gateway owns the per-connection session: it
// authenticates the upgrade request, pushes the unread count on connect and
// answers subscribe, list and mark-read requests.
//
// All state is process-local. Running several instances behind a load
// balancer requires an external fan-out, which this package does not provide.
package realtime
