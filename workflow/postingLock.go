package workflow

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/rgreyesph/paspro/config"
	"gorm.io/gorm"
)

const (
	documentLockTTL   = 30 * time.Second
	documentLockRetry = 100 * time.Millisecond
)

// acquireDocumentLock serializes workflow transitions per document. Prefers
// the distributed redis lock; without redis it falls back to a MySQL advisory
// lock, and on other dialects (sqlite in tests) runs unlocked since the
// surrounding transaction already serializes single-connection access.
func acquireDocumentLock(ctx context.Context, tx *gorm.DB, documentID string) (func(), error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "docLock:"+documentID, documentLockTTL, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(documentLockRetry), 50),
		})
		if err != nil {
			return nil, err
		}
		return func() { _ = lock.Release(context.Background()) }, nil
	}
	if tx.Dialector.Name() == "mysql" {
		var got int
		if err := tx.WithContext(ctx).Raw("SELECT GET_LOCK(?, 10)", "docLock:"+documentID).Scan(&got).Error; err != nil {
			return nil, err
		}
		return func() {
			tx.Raw("SELECT RELEASE_LOCK(?)", "docLock:"+documentID).Row()
		}, nil
	}
	return func() {}, nil
}
