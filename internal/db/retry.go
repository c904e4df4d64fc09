package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/radz2291/RZ-Property/internal/retry"
)

// Operation is one attempt at a write.
type Operation func() error

// DefaultMaxRetries bounds primary key collision retries on insert.
const DefaultMaxRetries = 3

// WithRetries executes an operation, retrying up to maxRetries times while
// isDuplicateKey reports the failure as a key collision. Any other error is
// returned immediately.
func WithRetries(op Operation, maxRetries int, isDuplicateKey func(error) bool) error {
	policy := retry.Policy{
		MaxAttempts: maxRetries + 1,
		Delay:       50 * time.Millisecond,
		Backoff:     retry.Linear,
		Retryable:   isDuplicateKey,
	}
	return policy.Do(context.Background(), func(context.Context) error {
		return op()
	})
}

// IsMongoDuplicateKeyError reports a duplicate key error (code 11000) on any index.
func IsMongoDuplicateKeyError(err error) bool {
	return duplicateKeyMessage(err) != ""
}

// IsDuplicateKeyOnIndex reports a duplicate key error raised by the named index
// (for example "_id_" or "slug_1").
func IsDuplicateKeyOnIndex(err error, index string) bool {
	msg := duplicateKeyMessage(err)
	return msg != "" && strings.Contains(msg, "index: "+index)
}

// IsDuplicateIDError reports a collision on the primary key only.
func IsDuplicateIDError(err error) bool {
	return IsDuplicateKeyOnIndex(err, "_id_")
}

func duplicateKeyMessage(err error) string {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return we.Message
			}
		}
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return writeError.Message
			}
		}
	}
	return ""
}
