package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const userStatusActive = "active"

type AuthService struct {
	Users   UserStore
	Vendors VendorStore
	Secret  []byte
	TTL     time.Duration
	Now     func() time.Time
}

// Claims is the access token payload.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Role       string `json:"role"`
	VendorID   int64  `json:"vendor_id,omitempty"`
	CustomerID int64  `json:"customer_id,omitempty"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type VendorRegisterInput struct {
	RegisterInput
	CompanyName string `json:"companyName" binding:"required,max=150"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResult struct {
	Token    string           `json:"token"`
	User     models.User      `json:"user"`
	Vendor   *models.Vendor   `json:"vendor,omitempty"`
	Customer *models.Customer `json:"customer,omitempty"`
}

func (s AuthService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 24 * time.Hour
	}
	return s.TTL
}

func (s AuthService) newUser(in RegisterInput, role string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, domain.Internal("failed to hash password", err)
	}
	return models.User{
		Name:         utils.NormalizeSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
		Role:         role,
		Status:       userStatusActive,
	}, nil
}

func (s AuthService) issue(u models.User, vendorID, customerID int64) (string, error) {
	now := clock(s.Now).now()
	claims := Claims{
		UserID:     u.ID,
		Role:       u.Role,
		VendorID:   vendorID,
		CustomerID: customerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", domain.Internal("failed to sign token", err)
	}
	return token, nil
}

// RegisterCustomer creates a customer account and logs it in.
func (s AuthService) RegisterCustomer(ctx context.Context, rc domain.RequestContext, in RegisterInput) (AuthResult, error) {
	u, err := s.newUser(in, domain.RoleCustomer)
	if err != nil {
		return AuthResult{}, err
	}
	u, c, err := s.Users.CreateCustomer(ctx, u)
	if err != nil {
		return AuthResult{}, domain.Internal("failed to register", err)
	}
	token, err := s.issue(u, 0, c.ID)
	if err != nil {
		return AuthResult{}, err
	}
	utils.LogEvent(rc.RequestID, "auth", "register", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return AuthResult{Token: token, User: u, Customer: &c}, nil
}

// RegisterVendor creates a vendor account awaiting admin approval.
func (s AuthService) RegisterVendor(ctx context.Context, rc domain.RequestContext, in VendorRegisterInput) (AuthResult, error) {
	u, err := s.newUser(in.RegisterInput, domain.RoleVendor)
	if err != nil {
		return AuthResult{}, err
	}
	u, v, err := s.Users.CreateVendor(ctx, u, models.Vendor{
		CompanyName:  utils.NormalizeSpace(in.CompanyName),
		ContactEmail: u.Email,
		Phone:        u.Phone,
		Status:       models.VendorPending,
	})
	if err != nil {
		return AuthResult{}, domain.Internal("failed to register vendor", err)
	}
	token, err := s.issue(u, v.ID, 0)
	if err != nil {
		return AuthResult{}, err
	}
	utils.LogEvent(rc.RequestID, "auth", "register_vendor", fmt.Sprintf("user_id=%d vendor_id=%d", u.ID, v.ID))
	return AuthResult{Token: token, User: u, Vendor: &v}, nil
}

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

func (s AuthService) Login(ctx context.Context, rc domain.RequestContext, in LoginInput) (AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, in.Email)
	if domain.IsNotFound(err) {
		return AuthResult{}, errBadCredentials
	}
	if err != nil {
		return AuthResult{}, domain.Internal("failed to load user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return AuthResult{}, errBadCredentials
	}
	if !strings.EqualFold(u.Status, userStatusActive) {
		return AuthResult{}, domain.ForbiddenError{Msg: "account is " + u.Status}
	}

	out := AuthResult{User: u}
	var vendorID, customerID int64
	switch u.Role {
	case domain.RoleVendor:
		v, err := s.Vendors.GetByUserID(ctx, u.ID)
		if err != nil {
			return AuthResult{}, domain.Internal("failed to load vendor", err)
		}
		vendorID, out.Vendor = v.ID, &v
	case domain.RoleCustomer:
		c, err := s.Users.GetCustomerByUserID(ctx, u.ID)
		if err != nil {
			return AuthResult{}, domain.Internal("failed to load customer", err)
		}
		customerID, out.Customer = c.ID, &c
	}
	if out.Token, err = s.issue(u, vendorID, customerID); err != nil {
		return AuthResult{}, err
	}
	utils.LogEvent(rc.RequestID, "auth", "login", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return out, nil
}

// ParseToken validates an HS256 token and returns its claims.
func (s AuthService) ParseToken(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(clock(s.Now).now),
	)
	if err != nil || !token.Valid {
		return Claims{}, domain.UnauthorizedError{Msg: "invalid or expired token"}
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return Claims{}, domain.UnauthorizedError{Msg: "invalid token claims"}
	}
	return claims, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !domain.IsNotFound(err) {
		return err
	}
	u, err := s.newUser(RegisterInput{Name: "Administrator", Email: email, Password: password}, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if _, err := s.Users.Create(ctx, u); err != nil {
		var conflict domain.ConflictError
		if errors.As(err, &conflict) {
			return nil
		}
		return err
	}
	utils.LogEvent("", "auth", "bootstrap_admin", "admin account created for "+u.Email)
	return nil
}
