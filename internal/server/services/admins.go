package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
	"github.com/sazinconstruction/adminkeeper/internal/server/cdn"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/repomanager"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminService lets an active admin manage the other accounts.
type AdminService struct {
	repomanager repomanager.RepositoryManager
	pipeline    *fields.Pipeline
	images      cdn.ImageStore
	logger      logging.Logger
}

func NewAdminService(m repomanager.RepositoryManager, p *fields.Pipeline, images cdn.ImageStore, l logging.Logger) *AdminService {
	return &AdminService{
		repomanager: m,
		pipeline:    p,
		images:      images,
		logger:      l.With("module", "admin_service"),
	}
}

func callerID(p auth.Principal) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(p.AccountID)
	if err != nil {
		return primitive.NilObjectID, common.ErrUnauthorized
	}
	return id, nil
}

// List returns every account except the caller's. Names are decrypted,
// emails are re-encrypted under the transport key.
func (s *AdminService) List(ctx context.Context, p auth.Principal) ([]ProfileView, error) {
	self, err := callerID(p)
	if err != nil {
		return nil, err
	}

	all, err := s.repomanager.Accounts().ListExcept(ctx, self)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	out := make([]ProfileView, 0, len(all))
	for _, acc := range all {
		name, err := s.pipeline.Open(acc.EncryptedName)
		if err != nil {
			s.logger.Warn(ctx, "stored name cannot be opened", "id", acc.ID.Hex())
			name = ""
		}
		email := ""
		if plain, err := s.pipeline.Open(acc.EncryptedEmail); err == nil {
			email, err = s.pipeline.ToTransport(plain)
			if err != nil {
				return nil, common.ErrInternal
			}
		} else {
			s.logger.Warn(ctx, "stored email cannot be opened", "id", acc.ID.Hex())
		}
		out = append(out, profileView(acc, name, email))
	}
	return out, nil
}

// SetStatus moves another account to active or reject. The (uid, email)
// pair must identify the same account.
func (s *AdminService) SetStatus(ctx context.Context, p auth.Principal, payload map[string]any) error {
	res, err := s.pipeline.Run(setStatusSchema, payload)
	if err != nil {
		return err
	}
	if res.Plain["uid"] == p.AccountID {
		return ErrSelfAction
	}

	id, err := primitive.ObjectIDFromHex(res.Plain["uid"])
	if err != nil {
		return &common.ValidationError{Fields: map[string]string{"uid": "Invalid user ID"}}
	}
	key := cryptox.Digest(res.Plain["email"])
	next := models.AccountStatus(res.Plain["status"])

	repo := s.repomanager.Accounts()
	acc, err := repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: admin not found", err)
	}
	if acc.LookupKey != key.String() {
		return fmt.Errorf("%w: admin not found", common.ErrNotFound)
	}
	if !acc.Status.CanTransition(next) {
		return ErrInvalidTransition
	}

	if err := repo.SetStatus(ctx, id, key, acc.Status, next); err != nil {
		if errors.Is(err, common.ErrPreconditionFailed) {
			return ErrStatusChanged
		}
		return err
	}
	s.logger.Info(ctx, "admin status changed", "id", id.Hex(), "from", acc.Status, "to", next, "by", p.AccountID)
	return nil
}

// Delete removes another account and its profile image.
func (s *AdminService) Delete(ctx context.Context, p auth.Principal, uid string) error {
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil {
		return &common.ValidationError{Fields: map[string]string{"uid": "Invalid user ID"}}
	}
	if uid == p.AccountID {
		return ErrSelfAction
	}

	acc, err := s.repomanager.Accounts().Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: admin not found", err)
	}
	dropImage(ctx, s.images, s.logger, acc.ImagePublicID)

	s.logger.Info(ctx, "admin deleted", "id", uid, "by", p.AccountID)
	return nil
}
