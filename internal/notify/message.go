// Package notify carries due-soon notification messages from the scheduler
// to the consumer that dispatches them.
package notify

import "time"

// Message is the queue envelope for one due-soon task notification.
// Field names are part of the queue's wire format; producers and consumers
// on both sides of Redis must agree on them.
type Message struct {
	OwnerID  int64      `json:"ownerId"`
	TaskID   string     `json:"taskId"`
	Title    string     `json:"title"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
	Priority string     `json:"priority,omitempty"`
}
