package services

import (
	"context"
	"errors"
	"strings"

	"eventhub/apperror"
	"eventhub/models"
	"eventhub/utils"
	"eventhub/validation"
)

type AuthService struct {
	users      models.UserRepository
	tokens     *utils.TokenManager
	blacklist  utils.TokenBlacklist
	bcryptCost int
}

type AuthServiceConfig struct {
	Users      models.UserRepository
	Tokens     *utils.TokenManager
	Blacklist  utils.TokenBlacklist
	BcryptCost int
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		users:      cfg.Users,
		tokens:     cfg.Tokens,
		blacklist:  cfg.Blacklist,
		bcryptCost: cfg.BcryptCost,
	}
}

type SignupRequest struct {
	Username        string  `json:"username" validate:"notblank,max=150"`
	Email           string  `json:"email" validate:"required,email,max=254"`
	Password        string  `json:"password" validate:"required,password_policy"`
	PasswordConfirm string  `json:"password_confirm" validate:"required"`
	FirstName       string  `json:"first_name" validate:"max=150"`
	LastName        string  `json:"last_name" validate:"max=150"`
	Phone           *string `json:"phone" validate:"omitempty,max=15"`
}

type SigninRequest struct {
	UsernameOrEmail string `json:"username_or_email" validate:"notblank"`
	Password        string `json:"password" validate:"required"`
}

type PasswordUpdateRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,password_policy"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// AuthResult is a user together with a freshly issued token pair.
type AuthResult struct {
	User   *models.User
	Tokens utils.TokenPair
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if req.Password != req.PasswordConfirm {
		return nil, validation.Field("password_confirm", "Passwords do not match.")
	}

	var fields []apperror.FieldError
	if taken, err := s.users.UsernameExists(ctx, req.Username); err != nil {
		return nil, apperror.NewInternal(err)
	} else if taken {
		fields = append(fields, apperror.FieldError{Field: "username", Message: "Username is already in use."})
	}
	if taken, err := s.users.EmailExists(ctx, req.Email); err != nil {
		return nil, apperror.NewInternal(err)
	} else if taken {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "Email is already in use."})
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation("Invalid input.", fields...)
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	phone := req.Phone
	if phone != nil && strings.TrimSpace(*phone) == "" {
		phone = nil
	}
	u := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	// the unique constraints still decide a race between two signups
	switch err := s.users.Create(ctx, u, phone); {
	case errors.Is(err, models.ErrDuplicateUsername):
		return nil, validation.Field("username", "Username is already in use.")
	case errors.Is(err, models.ErrDuplicateEmail):
		return nil, validation.Field("email", "Email is already in use.")
	case err != nil:
		return nil, apperror.NewInternal(err)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*AuthResult, error) {
	pair, err := s.tokens.GenerateTokenPair(u.ID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &AuthResult{User: u, Tokens: pair}, nil
}

// Signin resolves an identifier containing "@" by email first, falling back to the
// username since usernames may contain "@" too.
func (s *AuthService) Signin(ctx context.Context, req SigninRequest) (*AuthResult, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	ident := strings.TrimSpace(req.UsernameOrEmail)

	lookups := make([]func(context.Context, string) (*models.User, error), 0, 2)
	if strings.Contains(ident, "@") {
		lookups = append(lookups, s.users.GetByEmail)
	}
	lookups = append(lookups, s.users.GetByUsername)

	for _, find := range lookups {
		u, err := find(ctx, ident)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
		if utils.CheckPasswordHash(req.Password, u.PasswordHash) {
			return s.issue(u)
		}
	}
	return nil, apperror.NewUnauthorized(msgInvalidCredentials, nil)
}

// Refresh mints a new access token; the refresh token itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refresh string) (utils.TokenPair, error) {
	if strings.TrimSpace(refresh) == "" {
		return utils.TokenPair{}, validation.Field("refresh", "This field is required.")
	}
	claims, err := s.tokens.VerifyRefreshToken(refresh)
	if err != nil {
		return utils.TokenPair{}, apperror.NewUnauthorized(msgInvalidToken, err)
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return utils.TokenPair{}, apperror.NewInternal(err)
	}
	if revoked {
		return utils.TokenPair{}, apperror.NewUnauthorized("Token is blacklisted.", nil)
	}
	if _, err := s.users.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return utils.TokenPair{}, apperror.NewUnauthorized(msgUserNotFound, err)
		}
		return utils.TokenPair{}, apperror.NewInternal(err)
	}
	access, err := s.tokens.GenerateAccessToken(claims.UserID)
	if err != nil {
		return utils.TokenPair{}, apperror.NewInternal(err)
	}
	return utils.TokenPair{Refresh: refresh, Access: access}, nil
}

// revoke blacklists a refresh token owned by userID until it expires.
func (s *AuthService) revoke(ctx context.Context, userID int64, refresh string) error {
	if strings.TrimSpace(refresh) == "" {
		return apperror.NewBadRequest("Refresh token is required.", nil)
	}
	claims, err := s.tokens.VerifyRefreshToken(refresh)
	if err != nil {
		return apperror.NewBadRequest(msgInvalidToken, err)
	}
	if claims.UserID != userID {
		return apperror.NewBadRequest("Token does not belong to the current user.", nil)
	}
	fresh, err := s.blacklist.Revoke(ctx, claims.ID, s.tokens.Remaining(claims))
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !fresh {
		return apperror.NewBadRequest("Token is blacklisted.", nil)
	}
	return nil
}

func (s *AuthService) Logout(ctx context.Context, userID int64, refresh string) error {
	return s.revoke(ctx, userID, refresh)
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, req PasswordUpdateRequest) (utils.TokenPair, error) {
	if err := validation.Struct(req); err != nil {
		return utils.TokenPair{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return utils.TokenPair{}, notFound(err, msgUserNotFound)
	}
	if !utils.CheckPasswordHash(req.CurrentPassword, u.PasswordHash) {
		return utils.TokenPair{}, validation.Field("current_password", "Current password is incorrect.")
	}
	if req.NewPassword != req.NewPasswordConfirm {
		return utils.TokenPair{}, validation.Field("new_password_confirm", "New passwords do not match.")
	}
	hash, err := utils.HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return utils.TokenPair{}, apperror.NewInternal(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return utils.TokenPair{}, notFound(err, msgUserNotFound)
	}
	res, err := s.issue(u)
	if err != nil {
		return utils.TokenPair{}, err
	}
	return res.Tokens, nil
}

// DeleteAccount revokes the caller's refresh token and removes the user; the database
// cascades to the profile, created events and attendance rows.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64, refresh string) error {
	if err := s.revoke(ctx, userID, refresh); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return notFound(err, msgUserNotFound)
	}
	return nil
}
