package services

//go:generate mockgen -source=provisioning.go -destination=mock_provisioning.go -package=services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/sbilibin2017/gw-expense-tracker/internal/logger"
	"github.com/sbilibin2017/gw-expense-tracker/internal/models"
	"github.com/sbilibin2017/gw-expense-tracker/internal/repositories"
)

// provisionTimeout bounds a shared lookup/insert once it no longer follows
// the cancellation of the request that started it.
const provisionTimeout = 10 * time.Second

// ErrIdentityConflict is returned when a new identity's email already
// belongs to a user with a different external id.
var ErrIdentityConflict = errors.New("email is already linked to another identity")

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, user *models.UserDB) error
}

// UserCache is an optional read-through cache of provisioned users.
type UserCache interface {
	Get(ctx context.Context, externalID string) (*models.UserDB, error)
	Set(ctx context.Context, user *models.UserDB) error
	Delete(ctx context.Context, externalID string) error
}

// ProvisioningService maps verified identities onto local user rows,
// creating the row on first sight.
type ProvisioningService struct {
	reader UserReader
	writer UserWriter
	cache  UserCache
	group  singleflight.Group
}

// NewProvisioningService creates a ProvisioningService. cache may be nil.
func NewProvisioningService(reader UserReader, writer UserWriter, cache UserCache) *ProvisioningService {
	return &ProvisioningService{
		reader: reader,
		writer: writer,
		cache:  cache,
	}
}

// CurrentUser returns the local user for the principal, creating it if needed.
// An anonymous request (nil principal) yields a nil user and no error.
func (svc *ProvisioningService) CurrentUser(ctx context.Context, principal *models.Principal) (*models.UserDB, error) {
	if principal == nil || principal.ExternalID == "" {
		return nil, nil
	}

	if user := svc.cached(ctx, principal.ExternalID); user != nil {
		return user, nil
	}

	// Concurrent first logins of the same identity in this process share one
	// lookup/insert; other processes are kept out by the unique constraint.
	// The shared work is detached from the caller that started it, so one
	// cancelled request cannot fail the others waiting on it.
	ch := svc.group.DoChan(principal.ExternalID, func() (any, error) {
		sharedCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
		defer cancel()
		return svc.findOrCreate(sharedCtx, principal)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	user := *res.Val.(*models.UserDB)
	svc.remember(ctx, &user)

	return &user, nil
}

func (svc *ProvisioningService) findOrCreate(ctx context.Context, principal *models.Principal) (*models.UserDB, error) {
	user, err := svc.reader.GetByExternalID(ctx, principal.ExternalID)
	if err != nil {
		logger.Log.Errorw("failed to look up user", "external_id", principal.ExternalID, "err", err)
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	user = &models.UserDB{
		ID:         uuid.New(),
		ExternalID: principal.ExternalID,
		Email:      principal.PrimaryEmail(),
		Name:       principal.FullName(),
		AvatarURL:  principal.ImageURL,
	}

	err = svc.writer.Save(ctx, user)
	switch {
	case err == nil:
		logger.Log.Infow("user provisioned", "external_id", user.ExternalID, "user_id", user.ID)
		return user, nil

	case errors.Is(err, repositories.ErrUniqueViolation):
		// Another request created the row between our lookup and insert.
		existing, err := svc.reader.GetByExternalID(ctx, principal.ExternalID)
		if err != nil {
			logger.Log.Errorw("failed to re-read user after conflict", "external_id", principal.ExternalID, "err", err)
			return nil, err
		}
		if existing == nil {
			logger.Log.Warnw("email already linked to another identity",
				"external_id", principal.ExternalID, "email", user.Email)
			return nil, ErrIdentityConflict
		}
		return existing, nil

	default:
		logger.Log.Errorw("failed to save user", "external_id", principal.ExternalID, "err", err)
		return nil, err
	}
}

func (svc *ProvisioningService) cached(ctx context.Context, externalID string) *models.UserDB {
	if svc.cache == nil {
		return nil
	}
	user, err := svc.cache.Get(ctx, externalID)
	if err != nil {
		logger.Log.Warnw("user cache read failed", "external_id", externalID, "err", err)
		return nil
	}
	return user
}

func (svc *ProvisioningService) remember(ctx context.Context, user *models.UserDB) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.Set(ctx, user); err != nil {
		logger.Log.Warnw("user cache write failed", "external_id", user.ExternalID, "err", err)
	}
}

// Forget drops the cached copy of a user, so the next CurrentUser call
// goes back to the store and re-provisions a row that was deleted.
func (svc *ProvisioningService) Forget(ctx context.Context, externalID string) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.Delete(ctx, externalID); err != nil {
		logger.Log.Warnw("user cache eviction failed", "external_id", externalID, "err", err)
	}
}
