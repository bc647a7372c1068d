package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Neuropilotai/neuro-pilot-ai-sub013/config"
	"github.com/Neuropilotai/neuro-pilot-ai-sub013/utils"
	"github.com/bsm/redislock"
)

// All QueueEntry creation for a product must be serialized against any
// concurrent allocation for that same product; cross-product operations run
// in parallel. Product operations hold a shared rebuild guard plus one
// product lock; a full queue rebuild holds the guard exclusively.
var (
	rebuildGuard sync.RWMutex

	productLocksMu sync.Mutex
	productLocks   = map[string]*sync.Mutex{}
)

const productLockTTL = 30 * time.Second

func lockForProduct(productCode string) *sync.Mutex {
	productLocksMu.Lock()
	defer productLocksMu.Unlock()
	mu := productLocks[productCode]
	if mu == nil {
		mu = &sync.Mutex{}
		productLocks[productCode] = mu
	}
	return mu
}

// AcquireProductLock serializes queue mutation for one product code. When a
// Redis lock client is configured the lock is also held across instances,
// the way business posting is serialized elsewhere in this stack. The
// returned release function must be called exactly once.
func AcquireProductLock(ctx context.Context, productCode string) (func(), error) {
	rebuildGuard.RLock()
	local := lockForProduct(productCode)
	local.Lock()

	locker := config.GetRedisLock()
	if locker == nil {
		return func() {
			local.Unlock()
			rebuildGuard.RUnlock()
		}, nil
	}

	lock, err := locker.Obtain(ctx, "fifo:product:"+productCode, productLockTTL, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if err != nil {
		local.Unlock()
		rebuildGuard.RUnlock()
		if errors.Is(err, redislock.ErrNotObtained) {
			msg := "could not obtain product lock for " + productCode
			if documentId, ok := utils.GetDocumentIdFromContext(ctx); ok {
				msg += " while ingesting document " + documentId
			}
			return nil, errors.New(msg)
		}
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
		local.Unlock()
		rebuildGuard.RUnlock()
	}, nil
}

// AcquireRebuildLock makes a full queue rebuild exclusive with respect to
// every product operation in this process, and across instances when Redis
// is configured. Rebuild is a maintenance-mode operation.
func AcquireRebuildLock(ctx context.Context) (func(), error) {
	rebuildGuard.Lock()

	locker := config.GetRedisLock()
	if locker == nil {
		return rebuildGuard.Unlock, nil
	}

	lock, err := locker.Obtain(ctx, "fifo:rebuild", 10*time.Minute, nil)
	if err != nil {
		rebuildGuard.Unlock()
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, errors.New("another rebuild is already running")
		}
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
		rebuildGuard.Unlock()
	}, nil
}
