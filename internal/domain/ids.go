package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewEntityID returns a fresh identifier for an exercise or a set.
// ObjectIDs combine a timestamp, a per-process random value and a counter,
// so two ids generated for the same exercise never collide.
func NewEntityID() string {
	return primitive.NewObjectID().Hex()
}
