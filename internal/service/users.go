package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/pkg/permission"
	"bitwise74/bucket-panel/pkg/security"
	"bitwise74/bucket-panel/validators"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

// TermsConfirmation must be typed by the user to accept the terms of use
const TermsConfirmation = "entendido"

type Users struct {
	db     *gorm.DB
	hasher *security.PasswordHasher
	now    func() time.Time
}

func NewUsers(db *gorm.DB, h *security.PasswordHasher) *Users {
	return &Users{
		db:     db,
		hasher: h,
		now:    time.Now,
	}
}

type CreateUserRequest struct {
	Name        string
	Email       string
	Role        permission.Role
	Permissions []permission.Permission
}

// UserPatch holds the fields to change, nil fields are left alone
type UserPatch struct {
	Name               *string
	Email              *string
	Role               *string
	Status             *string
	Permissions        []permission.Permission
	SetPermissions     bool
	RegeneratePassword bool
}

func (p UserPatch) empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Status == nil && !p.SetPermissions && !p.RegeneratePassword
}

// SessionFor builds the session claims of u
func SessionFor(u *model.User) security.Session {
	return security.Session{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Role:            u.Role,
		Permissions:     u.Granted(),
		TermsAcceptedAt: u.TermsAcceptedAt,
	}
}

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}

	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users, %w", err)
	}

	return users, nil
}

func (s *Users) Get(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	return &u, nil
}

func (s *Users) emailTaken(tx *gorm.DB, email, exceptID string) (bool, error) {
	var n int64

	q := tx.Model(&model.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

// Create adds an invited user and returns it with the temporary password.
// Only the hash of the password is stored.
func (s *Users) Create(ctx context.Context, req CreateUserRequest) (*model.User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := validators.NormalizeEmail(req.Email)

	if name == "" || email == "" {
		return nil, "", invalid("name and email are required")
	}

	if err := validators.EmailValidator(email); err != nil {
		return nil, "", invalid(err.Error())
	}

	role := req.Role
	if role == "" {
		role = permission.Editor
	}
	if !role.Valid() {
		return nil, "", invalid("invalid role")
	}

	password, err := security.TempPassword(security.TempPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate password, %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password, %w", err)
	}

	u := &model.User{
		ID:           gonanoid.Must(),
		Name:         name,
		Email:        email,
		Role:         role,
		Status:       permission.Invited,
		Permissions:  model.NewStringSlice(permission.Normalize(permission.Strings(req.Permissions))),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.emailTaken(tx, email, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}

		return tx.Create(u).Error
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, "", fmt.Errorf("email already in use, %w", ErrConflict)
		}

		return nil, "", fmt.Errorf("failed to create user, %w", err)
	}

	return u, password, nil
}

// Update applies p to the user with the given id. The returned password is
// only set when a new one was requested.
func (s *Users) Update(ctx context.Context, id string, p UserPatch) (*model.User, string, error) {
	if strings.TrimSpace(id) == "" {
		return nil, "", invalid("user id is required")
	}

	if p.empty() {
		return nil, "", invalid("no fields to update")
	}

	updates := map[string]any{}

	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, "", invalid("invalid name")
		}

		updates["name"] = name
	}

	var email string
	if p.Email != nil {
		email = validators.NormalizeEmail(*p.Email)
		if err := validators.EmailValidator(email); err != nil {
			return nil, "", invalid("invalid email")
		}

		updates["email"] = email
	}

	if p.Role != nil {
		role := permission.Role(*p.Role)
		if !role.Valid() {
			return nil, "", invalid("invalid role")
		}

		updates["role"] = role
	}

	if p.Status != nil {
		status := permission.Status(*p.Status)
		if !status.Valid() {
			return nil, "", invalid("invalid status")
		}

		updates["status"] = status
	}

	if p.SetPermissions {
		updates["permissions"] = model.NewStringSlice(permission.Normalize(permission.Strings(p.Permissions)))
	}

	var password string
	if p.RegeneratePassword {
		var err error

		password, err = security.TempPassword(security.TempPasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("failed to generate password, %w", err)
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, "", fmt.Errorf("failed to hash password, %w", err)
		}

		updates["password_hash"] = hash
	}

	var u model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return err
		}

		if email != "" {
			taken, err := s.emailTaken(tx, email, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrConflict
			}
		}

		if err := tx.Model(&u).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, "", ErrNotFound
		case errors.Is(err, ErrConflict):
			return nil, "", fmt.Errorf("email already in use, %w", ErrConflict)
		}

		return nil, "", fmt.Errorf("failed to update user, %w", err)
	}

	return &u, password, nil
}

// Authenticate checks the credentials and marks the user as active. Unknown
// emails, wrong passwords and blocked users all fail the same way.
func (s *Users) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	email = validators.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	var u model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, fmt.Errorf("failed to fetch user, %w", err)
	}

	if u.Status == permission.Blocked {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	err = s.db.WithContext(ctx).Model(&u).Updates(map[string]any{
		"status":         permission.Active,
		"last_access_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update last access, %w", err)
	}

	u.Status = permission.Active
	u.LastAccessAt = &now

	return &u, nil
}

// AcceptTerms stamps the terms acceptance of the user. Accepting twice keeps
// the first timestamp.
func (s *Users) AcceptTerms(ctx context.Context, id, confirmation string) (*model.User, error) {
	if !strings.EqualFold(strings.TrimSpace(confirmation), TermsConfirmation) {
		return nil, invalid(fmt.Sprintf("type %q to confirm", TermsConfirmation))
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if u.TermsAcceptedAt != nil {
		return u, nil
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(u).Update("terms_accepted_at", now).Error; err != nil {
		return nil, fmt.Errorf("failed to accept terms, %w", err)
	}

	u.TermsAcceptedAt = &now
	return u, nil
}

// upsertAdmin creates or promotes the user with the given email to a fully
// privileged, active admin
func (s *Users) upsertAdmin(tx *gorm.DB, name, email, password string) (*model.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	var u model.User
	err = tx.Where("email = ?", email).First(&u).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	exists := err == nil

	u.Name = name
	u.Email = email
	u.Role = permission.Admin
	u.Status = permission.Active
	u.Permissions = model.NewStringSlice(permission.All)
	u.PasswordHash = hash

	if exists {
		err = tx.Save(&u).Error
	} else {
		u.ID = gonanoid.Must()
		u.CreatedAt = s.now()
		err = tx.Create(&u).Error
	}
	if err != nil {
		return nil, err
	}

	return &u, nil
}
