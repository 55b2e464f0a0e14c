package biz

import (
	"context"
	"strings"
	"time"

	"mediatrack/internal/auth"
	apperrors "mediatrack/internal/pkg/errors"
)

// Account is one registered user.
type Account struct {
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// AccountRepo is the persistence contract for accounts.
type AccountRepo interface {
	Create(ctx context.Context, account *Account) error
	GetByUsername(ctx context.Context, username string) (*Account, error)
	Delete(ctx context.Context, username string) error
}

// LoginResult carries the issued token and the account it belongs to.
type LoginResult struct {
	Username string
	Token    string
}

// AuthUseCase implements register and login on top of the repo and the
// token manager.
type AuthUseCase struct {
	repo AccountRepo
	jwt  *auth.JWTManager
}

func NewAuthUseCase(repo AccountRepo, jwtManager *auth.JWTManager) *AuthUseCase {
	return &AuthUseCase{repo: repo, jwt: jwtManager}
}

func (uc *AuthUseCase) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if len(username) < 2 {
		return nil, apperrors.New(apperrors.CodeBadRequest, "username must be at least 2 characters")
	}
	if len(password) < 6 {
		return nil, apperrors.New(apperrors.CodeBadRequest, "password must be at least 6 characters")
	}

	if existing, err := uc.repo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, apperrors.New(apperrors.CodeUserExists, "username already taken")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	account := &Account{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := uc.repo.Create(ctx, account); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "create account", err)
	}

	return uc.issueToken(account)
}

func (uc *AuthUseCase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := uc.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil || account == nil {
		return nil, apperrors.New(apperrors.CodeInvalidCredentials, "invalid username or password")
	}
	if !auth.VerifyPassword(account.PasswordHash, password) {
		return nil, apperrors.New(apperrors.CodeInvalidCredentials, "invalid username or password")
	}
	return uc.issueToken(account)
}

func (uc *AuthUseCase) issueToken(account *Account) (*LoginResult, error) {
	token, err := uc.jwt.Generate(account.Username)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "sign token", err)
	}
	return &LoginResult{Username: account.Username, Token: token}, nil
}
