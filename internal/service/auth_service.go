package service

import (
	"errors"
	"strings"
	"time"

	"github.com/lumimall/internal/config"
	"github.com/lumimall/internal/constants"
	"github.com/lumimall/internal/logger"
	"github.com/lumimall/internal/models"
	"github.com/lumimall/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTClaims 管理端令牌声明
type JWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserJWTClaims 用户端令牌声明
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RegisterInput 用户注册输入
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
}

// AuthService 认证服务，负责管理端与用户端的登录和令牌签发。
type AuthService struct {
	adminRepo repository.AdminRepository
	userRepo  repository.UserRepository
	adminJWT  config.JWTConfig
	userJWT   config.JWTConfig
}

// NewAuthService 创建认证服务
func NewAuthService(adminRepo repository.AdminRepository, userRepo repository.UserRepository, adminJWT, userJWT config.JWTConfig) *AuthService {
	return &AuthService{
		adminRepo: adminRepo,
		userRepo:  userRepo,
		adminJWT:  adminJWT,
		userJWT:   userJWT,
	}
}

// AdminLogin 管理员登录，成功返回签名令牌。
// 用户名不存在与密码错误返回同一错误，避免枚举。
func (s *AuthService) AdminLogin(username, password string) (string, *models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return "", nil, err
	}
	if admin == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.Update(admin); err != nil {
		logger.Warnw("admin_last_login_update_failed", "admin_id", admin.ID, "error", err)
	}

	token, err := s.signAdminToken(admin, now)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// Register 用户注册
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(input.Password) < 6 {
		return nil, ErrInvalidInput
	}

	existing, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	locale := strings.TrimSpace(input.Locale)
	if locale == "" {
		locale = constants.LocaleZhCN
	}
	now := time.Now()
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Locale:       locale,
		Status:       constants.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(user); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Login 用户登录，成功返回签名令牌。
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return "", nil, ErrUserDisabled
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(user); err != nil {
		logger.Warnw("user_last_login_update_failed", "user_id", user.ID, "error", err)
	}

	token, err := s.signUserToken(user, now)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) signAdminToken(admin *models.Admin, now time.Time) (string, error) {
	if strings.TrimSpace(s.adminJWT.SecretKey) == "" {
		return "", errors.New("管理端 JWT 密钥未配置")
	}
	expireHours := s.adminJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	claims := JWTClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.adminJWT.SecretKey))
}

func (s *AuthService) signUserToken(user *models.User, now time.Time) (string, error) {
	if strings.TrimSpace(s.userJWT.SecretKey) == "" {
		return "", errors.New("用户端 JWT 密钥未配置")
	}
	expireHours := s.userJWT.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	claims := UserJWTClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireHours) * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.userJWT.SecretKey))
}
