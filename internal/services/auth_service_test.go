package services

import (
	"context"
	"testing"
	"time"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth() (AuthService, *fakeUsers) {
	vendors := &fakeVendors{vendors: map[int64]models.Vendor{}}
	users := newFakeUsers(vendors)
	return AuthService{Users: users, Vendors: vendors, Secret: []byte("test-secret"), TTL: time.Hour, Now: fixedNow}, users
}

func TestRegisterCustomerAndLogin(t *testing.T) {
	svc, _ := newAuth()
	reg, err := svc.RegisterCustomer(context.Background(), domain.RequestContext{}, RegisterInput{
		Name: "Asha  Rao", Email: " Asha@Example.com ", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", reg.User.Email)
	assert.Equal(t, "Asha Rao", reg.User.Name)
	require.NotNil(t, reg.Customer)

	out, err := svc.Login(context.Background(), domain.RequestContext{}, LoginInput{Email: "asha@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	claims, err := svc.ParseToken(out.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	assert.Equal(t, reg.Customer.ID, claims.CustomerID)
	assert.Zero(t, claims.VendorID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuth()
	_, err := svc.RegisterCustomer(context.Background(), domain.RequestContext{}, RegisterInput{Name: "A", Email: "a@x.io", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), domain.RequestContext{}, LoginInput{Email: "a@x.io", Password: "password2"})
	assert.True(t, domain.IsUnauthorized(err))
	_, err = svc.Login(context.Background(), domain.RequestContext{}, LoginInput{Email: "nobody@x.io", Password: "password1"})
	assert.True(t, domain.IsUnauthorized(err))
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	svc, _ := newAuth()
	in := RegisterInput{Name: "A", Email: "a@x.io", Password: "password1"}
	_, err := svc.RegisterCustomer(context.Background(), domain.RequestContext{}, in)
	require.NoError(t, err)
	_, err = svc.RegisterCustomer(context.Background(), domain.RequestContext{}, in)
	assert.True(t, domain.IsConflict(err))
}

func TestRegisterVendorStartsPending(t *testing.T) {
	svc, _ := newAuth()
	out, err := svc.RegisterVendor(context.Background(), domain.RequestContext{}, VendorRegisterInput{
		RegisterInput: RegisterInput{Name: "Ravi", Email: "ops@sharma.in", Password: "password1"},
		CompanyName:   "Sharma Travels",
	})
	require.NoError(t, err)
	require.NotNil(t, out.Vendor)
	assert.Equal(t, models.VendorPending, out.Vendor.Status)

	claims, err := svc.ParseToken(out.Token)
	require.NoError(t, err)
	assert.Equal(t, out.Vendor.ID, claims.VendorID)
}

func TestParseTokenRejectsExpiredAndForeign(t *testing.T) {
	svc, _ := newAuth()
	reg, err := svc.RegisterCustomer(context.Background(), domain.RequestContext{}, RegisterInput{Name: "A", Email: "a@x.io", Password: "password1"})
	require.NoError(t, err)

	later := svc
	later.Now = func() time.Time { return fixedNow().Add(2 * time.Hour) }
	_, err = later.ParseToken(reg.Token)
	assert.True(t, domain.IsUnauthorized(err))

	other := svc
	other.Secret = []byte("another-secret")
	_, err = other.ParseToken(reg.Token)
	assert.True(t, domain.IsUnauthorized(err))

	_, err = svc.ParseToken("not.a.token")
	assert.True(t, domain.IsUnauthorized(err))
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, users := newAuth()
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@bus.io", "adminpass"))
	require.NoError(t, svc.EnsureAdmin(context.Background(), "admin@bus.io", "adminpass"))
	assert.Len(t, users.users, 1)
	assert.Equal(t, domain.RoleAdmin, users.users["admin@bus.io"].Role)

	require.NoError(t, svc.EnsureAdmin(context.Background(), "", ""))
}
