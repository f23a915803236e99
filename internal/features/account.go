package features

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/model"
	"interviewai/internal/repo"
	"interviewai/internal/utils/token"
)

const (
	msgPasswordPolicy  = "Password must be at least 8 characters long, include at least 1 uppercase letter, 1 number, 1 special character."
	msgGoogleProvider  = "Since you signed up using Google, you can change your password in your Google account settings."
	msgCurrentPassword = "Current Password Is Invalid"
	msgBadCredentials  = "Invalid email or password"
	msgBadGoogle       = "Google sign-in failed. Please try again."
	msgPasswordAccount = "An account with this email already exists. Sign in with your password."
)

const passwordSpecials = "!@#$%^&*"

var signInEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type SignUpRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

type ProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,alpha"`
	LastName  string `json:"lastName" validate:"required,alpha"`
}

type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=NewPassword"`
}

type AuthResult struct {
	User      *model.User `json:"user"`
	Token     string      `json:"-"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// ValidPassword reports whether p is at least 8 characters from letters, digits
// and !@#$%^&*, with an uppercase letter, a digit and one of the special characters.
func ValidPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return upper && digit && special
}

// SplitDisplayName splits a provider display name into first and last name.
func SplitDisplayName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IdentityVerifier turns a Google credential into a verified identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*token.GoogleIdentity, error)
}

type AccountService struct {
	repo     *repo.Repository
	tokens   *token.Provider
	google   IdentityVerifier
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewAccountService builds the account operations. A nil google disables Google sign-in.
func NewAccountService(r *repo.Repository, tokens *token.Provider, google IdentityVerifier, logger *zap.Logger) *AccountService {
	v := validator.New()
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	return &AccountService{
		repo:     r,
		tokens:   tokens,
		google:   google,
		validate: v,
		logger:   logger,
		now:      time.Now,
	}
}

// invalid turns validator output into the messages the profile and sign-up forms show.
func (a *AccountService) invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return status.Error(codes.InvalidArgument, strings.Join(msgs, " "))
}

func fieldMessage(fe validator.FieldError) string {
	label := map[string]string{
		"FirstName":       "First name",
		"LastName":        "Last name",
		"Email":           "Email",
		"Password":        "Password",
		"NewPassword":     "Password",
		"CurrentPassword": "Current password",
	}[fe.Field()]

	switch fe.Tag() {
	case "required":
		return label + " cannot be empty."
	case "alpha":
		return label + " must contain only alphabets."
	case "email":
		return "Invalid email address."
	case "password":
		return msgPasswordPolicy
	case "eqfield":
		if fe.Field() == "ConfirmPassword" && fe.Param() == "NewPassword" {
			return "New passwords do not match."
		}
		return "Passwords do not match."
	}
	return fe.Error()
}

func (a *AccountService) issue(user *model.User) (*AuthResult, error) {
	tok, exp, err := a.tokens.Generate(user.Email)
	if err != nil {
		a.logger.Error("Failed to sign token", zap.String("email", user.Email), zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to sign token")
	}
	return &AuthResult{User: user, Token: tok, ExpiresAt: exp}, nil
}

func (a *AccountService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := a.validate.Struct(req); err != nil {
		return nil, a.invalid(err)
	}

	hash, err := token.HashPassword(req.Password)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to hash password")
	}
	user := &model.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Provider:  model.ProviderPassword,
		CreatedAt: a.now(),
	}
	if err := a.repo.User.Create(ctx, user, hash); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, status.Error(codes.AlreadyExists, "An account with this email already exists.")
		}
		a.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}
	a.logger.Info("User signed up", zap.String("email", user.Email))
	return a.issue(user)
}

func (a *AccountService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if !signInEmail.MatchString(email) {
		return nil, status.Error(codes.InvalidArgument, "Please enter a valid email address.")
	}
	hash, err := a.repo.User.PasswordHash(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, msgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !token.CheckPasswordHash(password, hash) {
		return nil, status.Error(codes.Unauthenticated, msgBadCredentials)
	}
	user, err := a.repo.User.Get(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Error(codes.Unauthenticated, msgBadCredentials)
	}
	if err != nil {
		return nil, err
	}
	return a.issue(user)
}

// SignInWithGoogle verifies a Google ID token and signs its owner in, creating
// the user on first use. The email always comes from the verified token. An
// existing password account is never taken over and its profile is left alone.
func (a *AccountService) SignInWithGoogle(ctx context.Context, credential string) (*AuthResult, error) {
	if a.google == nil {
		return nil, status.Error(codes.Unimplemented, "Google sign-in is not configured")
	}
	id, err := a.google.Verify(ctx, credential)
	if err != nil {
		a.logger.Warn("Rejected Google credential", zap.Error(err))
		return nil, status.Error(codes.Unauthenticated, msgBadGoogle)
	}

	first, last := id.GivenName, id.FamilyName
	if first == "" && last == "" {
		first, last = SplitDisplayName(id.Name)
	}
	user := &model.User{
		Email:     normalizeEmail(id.Email),
		FirstName: first,
		LastName:  last,
		Avatar:    id.Picture,
		Provider:  model.ProviderGoogle,
		CreatedAt: a.now(),
	}
	err = a.repo.User.Create(ctx, user, "")
	if errors.Is(err, repo.ErrAlreadyExists) {
		return a.returningGoogleUser(ctx, user.Email)
	}
	if err != nil {
		a.logger.Error("Failed to create Google user", zap.String("email", user.Email), zap.Error(err))
		return nil, err
	}
	a.logger.Info("User signed up with Google", zap.String("email", user.Email))
	return a.issue(user)
}

func (a *AccountService) returningGoogleUser(ctx context.Context, email string) (*AuthResult, error) {
	user, err := a.repo.User.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Provider != model.ProviderGoogle {
		a.logger.Warn("Google sign-in refused for password account", zap.String("email", email))
		return nil, status.Error(codes.AlreadyExists, msgPasswordAccount)
	}
	return a.issue(user)
}

func (a *AccountService) Profile(ctx context.Context, email string) (*model.User, error) {
	user, err := a.repo.User.Get(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, status.Error(codes.NotFound, "User not found")
	}
	return user, err
}

func (a *AccountService) UpdateProfile(ctx context.Context, email string, req ProfileRequest) (*model.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := a.validate.Struct(req); err != nil {
		return nil, a.invalid(err)
	}
	if err := a.repo.User.UpdateName(ctx, email, req.FirstName, req.LastName); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, status.Error(codes.NotFound, "User not found")
		}
		a.logger.Error("Failed to update profile", zap.String("email", email), zap.Error(err))
		return nil, err
	}
	return a.Profile(ctx, email)
}

func (a *AccountService) ChangePassword(ctx context.Context, email string, req PasswordRequest) error {
	user, err := a.Profile(ctx, email)
	if err != nil {
		return err
	}
	if user.Provider == model.ProviderGoogle {
		return status.Error(codes.FailedPrecondition, msgGoogleProvider)
	}
	if err := a.validate.Struct(req); err != nil {
		return a.invalid(err)
	}

	hash, err := a.repo.User.PasswordHash(ctx, email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if err != nil || !token.CheckPasswordHash(req.CurrentPassword, hash) {
		return status.Error(codes.PermissionDenied, msgCurrentPassword)
	}

	next, err := token.HashPassword(req.NewPassword)
	if err != nil {
		return status.Error(codes.Internal, "failed to hash password")
	}
	if err := a.repo.User.SetPasswordHash(ctx, email, next); err != nil {
		a.logger.Error("Failed to change password", zap.String("email", email), zap.Error(err))
		return err
	}
	a.logger.Info("Password changed", zap.String("email", email))
	return nil
}

// Deactivate removes the profile and its credential together.
func (a *AccountService) Deactivate(ctx context.Context, email string) error {
	if err := a.repo.User.Delete(ctx, email); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return status.Error(codes.NotFound, "User not found")
		}
		a.logger.Error("Failed to deactivate account", zap.String("email", email), zap.Error(err))
		return err
	}
	a.logger.Info("Account deactivated", zap.String("email", email))
	return nil
}

// Authenticate resolves a token to its email. cookieEmail must match the subject.
func (a *AccountService) Authenticate(tok, cookieEmail string) (string, error) {
	if tok == "" || cookieEmail == "" {
		return "", status.Error(codes.Unauthenticated, "not signed in")
	}
	email, err := a.tokens.Parse(tok)
	if err != nil || email != normalizeEmail(cookieEmail) {
		return "", status.Error(codes.Unauthenticated, "invalid session")
	}
	return email, nil
}
