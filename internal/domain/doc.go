// Package domain holds the entities shared by every layer: users and their
// roles, tasks as seen by the notification subsystem, and notifications with
// their titles and messages.
package domain
