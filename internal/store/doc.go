// Package store defines the persistence boundary of the notification service:
// the user and notification store interfaces, their sentinel errors and a
// transaction helper shared by implementations.
package store
