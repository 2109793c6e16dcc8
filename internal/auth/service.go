// Package auth issues and validates the JWT bearer tokens used by both the
// HTTP API and the websocket handshake.
package auth

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/youneskazemi/chatcord/internal/domain"
	"github.com/youneskazemi/chatcord/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidToken       = errors.New("invalid token")
	ErrValidation         = errors.New("invalid input")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{2,36}$`)

// userColors matches the palette the web client renders names with.
var userColors = []string{
	"#e91e63", "#9c27b0", "#3f51b5", "#03a9f4",
	"#009688", "#4caf50", "#ff9800", "#795548",
}

type Service struct {
	users    *store.Store
	secret   []byte
	tokenTTL time.Duration
}

func NewService(users *store.Store, secret string, tokenTTL time.Duration) *Service {
	return &Service{users: users, secret: []byte(secret), tokenTTL: tokenTTL}
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, username, password string) (*LoginResult, error) {
	if !usernameRe.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be 2-36 word characters", ErrValidation)
	}
	if len(password) < 4 {
		return nil, fmt.Errorf("%w: password must be at least 4 characters", ErrValidation)
	}

	if _, _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	color := userColors[rand.Intn(len(userColors))]
	user, err := s.users.CreateUser(ctx, username, string(hash), color)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, hash, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user}, nil
}

// UserFromToken validates the token and resolves the live user record.
func (s *Service) UserFromToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return s.users.GetUserByID(ctx, domain.UserID(claims.Subject))
}

func (s *Service) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   string(user.ID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
