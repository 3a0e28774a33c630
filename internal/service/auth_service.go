package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"carpark_manager/internal/domain"
	"carpark_manager/internal/repository"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrTokenInvalid = errors.New("token is invalid or expired")

const defaultRole = "user"

// AuthService manages attendant accounts and issues JWTs. It is entirely
// independent from the parking state.
type AuthService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// EnsureDefaultAdmin seeds the admin account on first run so a fresh
// install can be logged into.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	_, err := s.userRepo.FindByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check default admin: %w", err)
	}
	_, err = s.Register(ctx, domain.RegisterUserDTO{
		Username: username,
		Password: password,
		Role:     "admin",
	})
	if err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	log.Printf("seeded default admin account %q", username)
	return nil
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := dto.Role
	if role == "" {
		role = defaultRole
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Username: dto.Username,
		Password: string(hashed),
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Password = ""
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.Username,
		"exp":      now.Add(s.jwtExpiration).Unix(),
		"iat":      now.Unix(),
		"role":     user.Role,
		"username": user.Username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:    signed,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// ValidateToken verifies a bearer token for the middleware and returns its
// claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrTokenInvalid)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Users lists the accounts, without password hashes.
func (s *AuthService) Users(ctx context.Context) ([]domain.User, error) {
	return s.userRepo.FindAll(ctx)
}
