package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"greenride/internal/models"
	"greenride/internal/repositories/interfaces"
	"greenride/internal/utils"
	"greenride/internal/validators"
	"greenride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the identity provider: it issues and checks credentials
// and owns the user profile.
type AuthService interface {
	Register(ctx context.Context, request *validators.RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, request *validators.LoginRequest) (*AuthResponse, error)
	ValidateToken(ctx context.Context, token string) (*Identity, error)

	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	RateUser(ctx context.Context, raterID, userID primitive.ObjectID, request *validators.RateUserRequest) (*models.User, error)
	AddGreenPoints(ctx context.Context, userID primitive.ObjectID, request *validators.GreenPointsRequest) (*models.User, error)
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type AuthResponse struct {
	User  *models.User         `json:"user"`
	Token *utils.TokenResponse `json:"token"`
}

// Identity is what a verified token resolves to.
type Identity struct {
	UserID   primitive.ObjectID
	UserType models.UserType
}

type authService struct {
	userRepo interfaces.UserRepository
	config   AuthConfig
	logger   *logger.Logger
}

func NewAuthService(userRepo interfaces.UserRepository, config AuthConfig, logger *logger.Logger) AuthService {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo: userRepo,
		config:   config,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, request *validators.RegisterRequest) (*AuthResponse, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(request.Password), s.config.BcryptCost)
	if err != nil {
		return nil, utils.NewDependencyError("failed to hash password", err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(request.Name),
		Email:    request.Email,
		Phone:    request.Phone,
		Password: string(hashedPassword),
		UserType: models.UserTypeUser,
	}

	// The unique email index decides concurrent registrations.
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, utils.NewConflictError(utils.ErrUserExists)
		}
		return nil, storeFailure("user", "create user", err)
	}

	s.logger.WithUserID(user.ID).WithField("event", utils.EventUserRegistered).Info("User registered")
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, request *validators.LoginRequest) (*AuthResponse, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, request.Email)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, utils.NewAuthError(utils.ErrInvalidCredentials)
		}
		return nil, storeFailure("user", "get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(request.Password)); err != nil {
		return nil, utils.NewAuthError(utils.ErrInvalidCredentials)
	}

	s.logger.WithUserID(user.ID).WithField("event", utils.EventUserLogin).Debug("User logged in")
	return s.issue(user)
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*Identity, error) {
	claims, err := utils.ValidateToken(token, s.config.JWTSecret)
	if err != nil {
		return nil, utils.NewAuthError(utils.ErrInvalidToken)
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, utils.NewAuthError(utils.ErrInvalidToken)
	}

	return &Identity{UserID: userID, UserType: models.UserType(claims.UserType)}, nil
}

func (s *authService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeFailure("user", "get user", err)
	}
	return user, nil
}

func (s *authService) RateUser(ctx context.Context, raterID, userID primitive.ObjectID, request *validators.RateUserRequest) (*models.User, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}
	if raterID == userID {
		return nil, utils.NewValidationError("users cannot rate themselves")
	}

	user, err := s.userRepo.ApplyRating(ctx, userID, request.Rating)
	if err != nil {
		return nil, storeFailure("user", "rate user", err)
	}
	return user, nil
}

// AddGreenPoints grants points outside ride settlement. The increment is a
// single atomic update, so concurrent grants never lose points.
func (s *authService) AddGreenPoints(ctx context.Context, userID primitive.ObjectID, request *validators.GreenPointsRequest) (*models.User, error) {
	if err := validators.ValidateStruct(request).AsError(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.AddGreenPoints(ctx, userID, request.Points)
	if err != nil {
		return nil, storeFailure("user", "add green points", err)
	}

	s.logger.WithUserID(userID).WithFields(map[string]interface{}{
		"event":  utils.EventGreenPointsAdded,
		"points": request.Points,
	}).Info("Green points added")
	return user, nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, err := utils.GenerateAccessToken(user.ID, string(user.UserType), user.Email, s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return nil, utils.NewDependencyError("failed to generate token", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}
