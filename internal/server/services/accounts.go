package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/auth"
	"github.com/sazinconstruction/adminkeeper/internal/server/cdn"
	"github.com/sazinconstruction/adminkeeper/internal/server/fields"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/accounts"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/repomanager"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const profileFolder = "profiles"

// AccountOptions are the account settings taken from config.
type AccountOptions struct {
	InitialStatus   models.AccountStatus
	DefaultImageURL string
}

type AccountService struct {
	repomanager repomanager.RepositoryManager
	pipeline    *fields.Pipeline
	sessions    *auth.Sessions
	gate        *auth.Gate
	images      cdn.ImageStore
	opts        AccountOptions
	logger      logging.Logger
}

func NewAccountService(m repomanager.RepositoryManager, p *fields.Pipeline, s *auth.Sessions, g *auth.Gate,
	images cdn.ImageStore, opts AccountOptions, l logging.Logger) *AccountService {
	if !opts.InitialStatus.Valid() {
		opts.InitialStatus = models.StatusPending
	}
	return &AccountService{
		repomanager: m,
		pipeline:    p,
		sessions:    s,
		gate:        g,
		images:      images,
		opts:        opts,
		logger:      l.With("module", "account_service"),
	}
}

func sameSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Register creates a new account in the initial status. It does not start a
// session: new accounts wait for an admin to activate them.
func (s *AccountService) Register(ctx context.Context, payload map[string]any, img *Upload) (UserView, error) {
	res, err := s.pipeline.Run(registerSchema, payload)
	if err != nil {
		return UserView{}, err
	}
	if !sameSecret(res.Plain["password"], res.Plain["confirmPassword"]) {
		return UserView{}, confirmMismatch()
	}

	repo := s.repomanager.Accounts()
	key := cryptox.Digest(res.Plain["email"])

	_, err = repo.FindByLookupKey(ctx, key)
	if err == nil {
		return UserView{}, fmt.Errorf("%w: user already exists with this email", common.ErrAlreadyExists)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return UserView{}, fmt.Errorf("error checking account: %w", err)
	}

	acc := &models.Account{
		LookupKey:         key.String(),
		EncryptedName:     res.Stored["name"],
		EncryptedEmail:    res.Stored["email"],
		EncryptedPassword: res.Stored["password"],
		Status:            s.opts.InitialStatus,
		ImageURL:          s.opts.DefaultImageURL,
	}

	var uploaded *cdn.Image
	if img != nil {
		image, err := s.images.Put(ctx, profileFolder, img.ContentType, img.Body)
		if err != nil {
			return UserView{}, imageError(err)
		}
		uploaded = &image
		acc.ImageURL, acc.ImagePublicID = image.URL, image.PublicID
	}

	if err := repo.Insert(ctx, acc); err != nil {
		if uploaded != nil {
			s.dropImage(ctx, uploaded.PublicID)
		}
		if errors.Is(err, common.ErrAlreadyExists) {
			return UserView{}, fmt.Errorf("%w: user already exists with this email", common.ErrAlreadyExists)
		}
		return UserView{}, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "lookup_key", key, "status", acc.Status)
	return UserView{
		UID:       acc.ID.Hex(),
		Username:  res.Plain["name"],
		Email:     res.Wire["email"],
		PhotoURL:  acc.ImageURL,
		CreatedAt: acc.CreatedAt,
	}, nil
}

// Login checks the credentials of an active account and issues a session.
// Unknown, inactive and wrong-password attempts fail the same way.
func (s *AccountService) Login(ctx context.Context, payload map[string]any) (Session, error) {
	res, err := s.pipeline.Run(loginSchema, payload)
	if err != nil {
		return Session{}, err
	}

	key := cryptox.Digest(res.Plain["email"])
	acc, err := s.repomanager.Accounts().FindActive(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "login for unknown or inactive account", "lookup_key", key)
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("error loading account: %w", err)
	}

	stored, err := s.pipeline.OpenPassword(acc.EncryptedPassword)
	if err != nil {
		s.logger.Error(ctx, "stored password cannot be opened", "lookup_key", key)
		return Session{}, common.ErrInternal
	}
	if !sameSecret(stored, res.Plain["password"]) {
		s.logger.Warn(ctx, "password mismatch", "lookup_key", key)
		return Session{}, ErrInvalidCredentials
	}

	name, err := s.pipeline.Open(acc.EncryptedName)
	if err != nil {
		s.logger.Error(ctx, "stored name cannot be opened", "lookup_key", key)
		return Session{}, common.ErrInternal
	}

	token, exp, err := s.sessions.Issue(auth.Identity{UID: acc.ID.Hex(), Username: name, Email: res.Plain["email"]})
	if err != nil {
		return Session{}, fmt.Errorf("error issuing session: %w", err)
	}

	return Session{
		User: UserView{
			UID:       acc.ID.Hex(),
			Username:  name,
			Email:     res.Wire["email"],
			PhotoURL:  acc.ImageURL,
			CreatedAt: acc.CreatedAt,
		},
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Logout revokes token if it carries a valid signature. Unreadable tokens are
// ignored: the caller clears the cookie either way.
func (s *AccountService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	exp, ok := s.sessions.Expiry(token)
	if !ok {
		return
	}
	s.gate.Revoke(token, exp)
	s.logger.Info(ctx, "session revoked")
}

// GetProfile returns the caller's own profile. uid must be the caller's id.
func (s *AccountService) GetProfile(ctx context.Context, p auth.Principal, uid string) (ProfileView, error) {
	id, err := primitive.ObjectIDFromHex(uid)
	if err != nil || uid != p.AccountID {
		return ProfileView{}, fmt.Errorf("%w: user not found", common.ErrNotFound)
	}

	acc, err := s.repomanager.Accounts().FindByID(ctx, id)
	if err != nil {
		return ProfileView{}, err
	}
	if acc.LookupKey != p.LookupKey.String() || acc.Status != models.StatusActive {
		return ProfileView{}, fmt.Errorf("%w: user not found", common.ErrNotFound)
	}

	name, err := s.pipeline.Open(acc.EncryptedName)
	if err != nil {
		return ProfileView{}, common.ErrInternal
	}
	email, err := s.pipeline.ToTransport(p.Email)
	if err != nil {
		return ProfileView{}, common.ErrInternal
	}
	return profileView(acc, name, email), nil
}

func profileView(acc models.Account, name, email string) ProfileView {
	return ProfileView{
		UID:       acc.ID.Hex(),
		Name:      name,
		Email:     email,
		Status:    acc.Status,
		Image:     acc.ImageURL,
		Profile:   acc.Profile,
		CreatedAt: acc.CreatedAt,
		UpdatedAt: acc.UpdatedAt,
	}
}

// UpdateProfile rewrites the caller's profile and reissues the session so
// the token carries the new name.
func (s *AccountService) UpdateProfile(ctx context.Context, p auth.Principal, payload map[string]any, img *Upload) (Session, error) {
	res, err := s.pipeline.Run(profileSchema, payload)
	if err != nil {
		return Session{}, err
	}
	if cryptox.Digest(res.Plain["email"]) != p.LookupKey {
		return Session{}, ErrEmailMismatch
	}

	upd := accounts.ProfileUpdate{
		EncryptedName:  res.Stored["name"],
		EncryptedEmail: res.Stored["email"],
		Profile: models.Profile{
			Phone:      res.Stored["phone"],
			Position:   res.Stored["position"],
			Department: res.Stored["department"],
			Company:    res.Stored["company"],
			Location:   res.Stored["location"],
			JoinDate:   res.Stored["joinDate"],
			Bio:        res.Stored["bio"],
			LinkedIn:   res.Stored["linkedin"],
			Twitter:    res.Stored["twitter"],
		},
	}
	if img != nil {
		image, err := s.images.Put(ctx, profileFolder, img.ContentType, img.Body)
		if err != nil {
			return Session{}, imageError(err)
		}
		upd.Image = &accounts.Image{URL: image.URL, PublicID: image.PublicID}
	}

	before, err := s.repomanager.Accounts().UpdateProfile(ctx, p.LookupKey, upd)
	if err != nil {
		if upd.Image != nil {
			s.dropImage(ctx, upd.Image.PublicID)
		}
		return Session{}, err
	}

	photo := before.ImageURL
	if upd.Image != nil {
		photo = upd.Image.URL
		if before.ImagePublicID != "" {
			s.dropImage(ctx, before.ImagePublicID)
		}
	}

	name := res.Plain["name"]
	token, exp, err := s.sessions.Issue(auth.Identity{UID: p.AccountID, Username: name, Email: p.Email})
	if err != nil {
		return Session{}, fmt.Errorf("error issuing session: %w", err)
	}
	email, err := s.pipeline.ToTransport(p.Email)
	if err != nil {
		return Session{}, common.ErrInternal
	}

	s.logger.Info(ctx, "profile updated", "lookup_key", p.LookupKey)
	return Session{
		User:      UserView{UID: p.AccountID, Username: name, Email: email, PhotoURL: photo, CreatedAt: before.CreatedAt},
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// ChangePassword replaces the caller's password after checking the current
// one.
func (s *AccountService) ChangePassword(ctx context.Context, p auth.Principal, payload map[string]any) error {
	res, err := s.pipeline.Run(changePasswordSchema, payload)
	if err != nil {
		return err
	}
	if cryptox.Digest(res.Plain["email"]) != p.LookupKey {
		return ErrEmailMismatch
	}

	repo := s.repomanager.Accounts()
	acc, err := repo.FindActive(ctx, p.LookupKey)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrAccountNotActive
	}
	if err != nil {
		return fmt.Errorf("error loading account: %w", err)
	}

	current, err := s.pipeline.OpenPassword(acc.EncryptedPassword)
	if err != nil {
		return common.ErrInternal
	}
	if !sameSecret(current, res.Plain["password"]) {
		s.logger.Warn(ctx, "password change with wrong current password", "lookup_key", p.LookupKey)
		return ErrInvalidCredentials
	}

	if err := repo.SetPassword(ctx, p.LookupKey, res.Stored["newpassword"]); err != nil {
		return err
	}
	s.logger.Info(ctx, "password changed", "lookup_key", p.LookupKey)
	return nil
}

func (s *AccountService) dropImage(ctx context.Context, publicID string) {
	dropImage(ctx, s.images, s.logger, publicID)
}

func dropImage(ctx context.Context, images cdn.ImageStore, l logging.Logger, publicID string) {
	if publicID == "" {
		return
	}
	if err := images.Delete(ctx, publicID); err != nil {
		l.Warn(ctx, "image delete failed", "public_id", publicID, "error", err)
	}
}

// imageError turns upload rejections into validation failures.
func imageError(err error) error {
	if errors.Is(err, cdn.ErrUnsupportedImage) || errors.Is(err, cdn.ErrImageTooLarge) || errors.Is(err, cdn.ErrEmptyImage) {
		return &common.ValidationError{Fields: map[string]string{"image": err.Error()}}
	}
	return fmt.Errorf("image upload: %w", err)
}
