// Package task runs asynchronous work under a fixed concurrency ceiling.
// The Dispatcher queues submitted tasks in order, starts them as slots free
// up, and hands each caller a Future for its own result so one failing task
// never disturbs the rest of a batch.
package task
