package models

import "time"

// EntryState is the lifecycle state of a waiting-queue entry.
type EntryState string

const (
	StateWaiting EntryState = "waiting"
	StateAllowed EntryState = "allowed"
)

// WaitingEntry is one shopper's position in the checkout waiting line.
type WaitingEntry struct {
	Token string `json:"token"`
	// EnqueuedAt is when the token entered the waiting line; zero once allowed,
	// since admission drops the enqueue score.
	EnqueuedAt time.Time  `json:"enqueued_at,omitempty"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	State      EntryState `json:"state"`
	// Rank counts WAITING entries ahead of this one; meaningless once allowed.
	Rank int64 `json:"rank"`
}

// QueueStatus is the response shape for join/status calls.
type QueueStatus struct {
	Rank      int64  `json:"rank"`
	IsAllowed bool   `json:"is_allowed"`
	Message   string `json:"message"`
}
