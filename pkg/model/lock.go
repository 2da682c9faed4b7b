package model

import "time"

// SlotLock is an advisory lock over one court and date. The token lets only
// the holder release it; expired locks are reclaimable.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"token"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
