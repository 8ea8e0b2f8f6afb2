package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// IsTransientMongoError reports connectivity failures that may succeed on retry.
func IsTransientMongoError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return true
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}

	var selectionErr topology.ServerSelectionError
	if errors.As(err, &selectionErr) {
		return true
	}

	var labeled mongo.LabeledError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("RetryableWriteError") ||
			labeled.HasErrorLabel("TransientTransactionError")
	}
	return false
}
