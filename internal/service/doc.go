// Package service contains the application logic of the notification
// subsystem. It coordinates the stores in internal/store with the realtime
// router: task and user events become stored notifications that are pushed to
// connected clients, and the read side serves listing, counting and marking
// notifications as read.
//
// Services receive their dependencies through constructor injection. Store
// errors are wrapped in NotificationServiceError so callers can still match
// store sentinels with errors.Is.
package service
