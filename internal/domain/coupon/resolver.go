package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// RepoResolver implements Resolver by looking up coupons from a Repository,
// checking expiry against an injected clock, and locking the row to the user.
type RepoResolver struct {
	repo Repository
	now  func() time.Time
}

// NewRepoResolver creates a RepoResolver backed by the given Repository.
func NewRepoResolver(repo Repository) *RepoResolver {
	return &RepoResolver{repo: repo, now: time.Now}
}

// Resolve looks up the coupon for code, verifies it has not expired, and
// locks it to userID so a concurrent placement cannot consume it.
func (r *RepoResolver) Resolve(ctx context.Context, code, userID string) (*Coupon, error) {
	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.ExpiresAt.IsZero() && r.now().After(c.ExpiresAt) {
		return nil, ErrExpired
	}

	if err := r.repo.Lock(ctx, c.ID, userID); err != nil {
		return nil, errors.Wrap(err, "lock coupon")
	}

	return c, nil
}

// Unlock releases a previously acquired coupon lock.
func (r *RepoResolver) Unlock(ctx context.Context, id string) error {
	return r.repo.Unlock(ctx, id)
}
