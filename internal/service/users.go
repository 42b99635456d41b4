package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"pkg.mon.icu/social/internal/auth"
	"pkg.mon.icu/social/internal/media"
	"pkg.mon.icu/social/internal/storage"
	"pkg.mon.icu/social/internal/storage/entity"
	"pkg.mon.icu/social/internal/util"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type Registration struct {
	Username        string
	Email           string
	PhoneNumber     *string
	Password        string
	PasswordConfirm string
}

// ProfileUpdate changes only the fields that are set. NewPassword requires CurrentPassword.
type ProfileUpdate struct {
	Username        *string
	Email           *string
	PhoneNumber     *string
	CurrentPassword string
	NewPassword     string
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return newError(ErrValidation, "invalid email address %q", email)
	}
	return nil
}

func normalizePhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	p := strings.TrimSpace(*phone)
	if p == "" {
		return nil
	}
	return &p
}

// checkUserKeys fails with ErrConflict when another user already holds one of the unique values of u.
func checkUserKeys(ctx context.Context, q storage.Queries, u *entity.User) error {
	keys := []struct {
		key    entity.UserKey
		value  *string
		detail string
	}{
		{entity.UserKeyUsername, &u.Username, "Username already registered"},
		{entity.UserKeyEmail, &u.Email, "Email already registered"},
		{entity.UserKeyPhone, u.PhoneNumber, "Phone number already registered"},
	}
	for _, k := range keys {
		if k.value == nil {
			continue
		}
		taken, err := q.IsUserKeyTaken(ctx, k.key, *k.value, u.ID)
		if err != nil {
			return err
		}
		if taken {
			return newError(ErrConflict, k.detail)
		}
	}
	return nil
}

func (s *Service) Register(ctx context.Context, r Registration) (*entity.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if r.Username == "" {
		return nil, newError(ErrValidation, "username is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return nil, err
	}
	if r.Password != r.PasswordConfirm {
		return nil, newError(ErrValidation, "passwords do not match")
	}
	if err := auth.CheckPasswordStrength(r.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(r.Password)
	if err != nil {
		return nil, err
	}

	u := entity.NewUser(r.Username, r.Email, normalizePhone(r.PhoneNumber), hash)
	err = s.transact(ctx, func(q storage.Queries) error {
		if err := checkUserKeys(ctx, q, u); err != nil {
			return err
		}
		return orConflict(q.CreateUser(ctx, u), "User already registered")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Sugar().Infof("Registered user %s (%d).", u.Username, u.ID)
	return u, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	var u *entity.User
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		u, err = q.FindUserByUsername(ctx, username)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) || err == nil && !auth.VerifyPassword(password, u.Password) {
		return "", newError(auth.ErrInvalidCredentials, "Incorrect username or password")
	}
	if err != nil {
		return "", err
	}

	return s.tokens.Issue(util.FormatID(u.ID), 0)
}

func (s *Service) Authenticate(ctx context.Context, token string) (*entity.User, error) {
	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	id, err := util.ParseID(subject)
	if err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	u, err := s.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	return u, err
}

func (s *Service) ListUsers(ctx context.Context) ([]*entity.User, error) {
	var users []*entity.User
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		users, err = q.FindUsers(ctx)
		return err
	})
	return users, err
}

func (s *Service) GetUser(ctx context.Context, id entity.ID) (*entity.User, error) {
	var u *entity.User
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		u, err = q.FindUser(ctx, id)
		return orNotFound(err, "User with ID %d not found", id)
	})
	return u, err
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u *entity.User
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		u, err = q.FindUserByUsername(ctx, username)
		return orNotFound(err, "User %q not found", username)
	})
	return u, err
}

func (s *Service) UpdateProfile(ctx context.Context, caller *entity.User, upd ProfileUpdate) (*entity.User, error) {
	var hash string
	if upd.NewPassword != "" {
		if !auth.VerifyPassword(upd.CurrentPassword, caller.Password) {
			return nil, newError(ErrValidation, "current password is incorrect")
		}
		if err := auth.CheckPasswordStrength(upd.NewPassword); err != nil {
			return nil, err
		}
		var err error
		if hash, err = auth.HashPassword(upd.NewPassword); err != nil {
			return nil, err
		}
	}
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return nil, newError(ErrValidation, "username must not be empty")
	}
	if upd.Email != nil {
		if err := validateEmail(strings.TrimSpace(*upd.Email)); err != nil {
			return nil, err
		}
	}

	var u *entity.User
	err := s.transact(ctx, func(q storage.Queries) error {
		var err error
		if u, err = q.FindUser(ctx, caller.ID); err != nil {
			return orNotFound(err, "User with ID %d not found", caller.ID)
		}
		if upd.Username != nil {
			u.Username = strings.TrimSpace(*upd.Username)
		}
		if upd.Email != nil {
			u.Email = strings.TrimSpace(*upd.Email)
		}
		if upd.PhoneNumber != nil {
			u.PhoneNumber = normalizePhone(upd.PhoneNumber)
		}
		if hash != "" {
			u.Password = hash
		}
		if err := checkUserKeys(ctx, q, u); err != nil {
			return err
		}
		return orConflict(q.UpdateUser(ctx, u), "User already registered")
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUser removes the caller's own account with everything it owns, then the files it referenced.
func (s *Service) DeleteUser(ctx context.Context, caller *entity.User, id entity.ID) error {
	if caller.ID != id {
		return newError(ErrForbidden, "Not authorized to delete this user")
	}

	var files []string
	err := s.transact(ctx, func(q storage.Queries) error {
		u, err := q.FindUser(ctx, id)
		if err != nil {
			return orNotFound(err, "User with ID %d not found", id)
		}
		files = append(files, derefAll(u.ProfilePicture, u.BackgroundImage)...)

		// Reels go with the user, so their media has to be collected first.
		reels, err := q.FindReelsByOwner(ctx, id)
		if err != nil {
			return err
		}
		for _, r := range reels {
			files = append(files, r.MediaURLs()...)
		}

		return q.DeleteUser(ctx, id)
	})
	if err != nil {
		return err
	}

	s.deleteMedia(files...)
	s.logger.Sugar().Infof("Deleted user %d.", id)
	return nil
}

func (s *Service) SetProfilePicture(ctx context.Context, caller *entity.User, up *Upload) (*entity.User, error) {
	return s.setUserImage(ctx, caller, up, "profile_pictures", func(u *entity.User) **string { return &u.ProfilePicture })
}

func (s *Service) SetBackgroundImage(ctx context.Context, caller *entity.User, up *Upload) (*entity.User, error) {
	return s.setUserImage(ctx, caller, up, "background_images", func(u *entity.User) **string { return &u.BackgroundImage })
}

func (s *Service) setUserImage(ctx context.Context, caller *entity.User, up *Upload, dir string, field func(*entity.User) **string) (*entity.User, error) {
	url, err := s.save(up, media.ImagePolicy(dir, s.limits.MaxImageSize))
	if err != nil {
		return nil, err
	}

	var u *entity.User
	var old *string
	err = s.transact(ctx, func(q storage.Queries) error {
		var err error
		if u, err = q.FindUser(ctx, caller.ID); err != nil {
			return orNotFound(err, "User with ID %d not found", caller.ID)
		}
		f := field(u)
		old = *f
		*f = &url
		return q.UpdateUser(ctx, u)
	})
	if err != nil {
		s.deleteMedia(url)
		return nil, err
	}

	s.deleteMedia(derefAll(old)...)
	return u, nil
}

func derefAll(ps ...*string) []string {
	var out []string
	for _, p := range ps {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}
