package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"smartorder/entity"
	"smartorder/repository"
	"smartorder/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minPasswordLen = 6
	resetTokenTTL  = time.Hour
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes the reset token to the log instead of sending mail.
type LogMailer struct {
	Log *logrus.Logger
}

func (m LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.Log.WithFields(logrus.Fields{"email": email, "token": token}).Info("password reset requested")
	return nil
}

// AuthService handles register/login and the password reset flow.
type AuthService struct {
	userRepo  *repository.UserRepository
	mailer    Mailer
	log       *logrus.Logger
	jwtSecret string
	jwtTTL    time.Duration
	now       func() time.Time
}

func NewAuthService(repo *repository.UserRepository, mailer Mailer, log *logrus.Logger, secret string, ttl time.Duration) *AuthService {
	if mailer == nil {
		mailer = LogMailer{Log: log}
	}
	return &AuthService{
		userRepo:  repo,
		mailer:    mailer,
		log:       log,
		jwtSecret: secret,
		jwtTTL:    ttl,
		now:       time.Now,
	}
}

type RegisterReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type LoginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ResetPasswordReq struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validationError("invalid email")
	}
	return email, nil
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", validationError("password must be at least %d characters", minPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Register always creates a customer; staff accounts come from seeding.
func (s *AuthService) Register(ctx context.Context, req *RegisterReq) (*entity.User, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:    email,
		Password: hashed,
		Name:     strings.TrimSpace(req.Name),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     entity.RoleCustomer,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// Login checks the password and issues a JWT.
func (s *AuthService) Login(ctx context.Context, req *LoginReq) (string, *entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(user.ID, user.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uint) (*entity.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return u, err
}

// ForgotPassword never reveals whether the email is registered. Storage and
// mail failures are logged and the caller still gets a nil error.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	email = strings.ToLower(strings.TrimSpace(email))
	l := s.log.WithField("email", email)

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.WithError(err).Warn("forgot password lookup failed")
		}
		return
	}

	now := s.now().UTC()
	pr := &entity.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.userRepo.CreateReset(ctx, pr); err != nil {
		l.WithError(err).Error("store reset token failed")
		return
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, pr.Token); err != nil {
		l.WithError(err).Warn("send reset email failed")
	}
}

func (s *AuthService) ResetPassword(ctx context.Context, req *ResetPasswordReq) error {
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	ok, err := s.userRepo.ConsumeReset(ctx, strings.TrimSpace(req.Token), hashed, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return validationError("reset token is invalid or expired")
	}
	return nil
}
