// Package api exposes the notification REST endpoints and assembles the HTTP
// router that also mounts the websocket gateway. Handlers translate HTTP
// requests into service calls and map service errors to safe responses.
package api
