// Package events carries domain events from the task and user services to the
// notification subsystem.
//
// The CRUD services publish DomainEvents on a Redis channel with
// RedisPublisher. RedisSubscriber receives them and hands each one to a worker
// queue, so a slow handler never stalls the subscription. In a single process
// the InMemoryEventEmitter can be used instead.
package events
