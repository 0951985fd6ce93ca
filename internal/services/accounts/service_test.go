package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorify/internal/apperror"
	"scorify/internal/auth"
	"scorify/internal/domain"
)

type fakeUsers struct {
	users []domain.User
	err   error
}

func (f *fakeUsers) UserByEmail(_ context.Context, email string) (domain.User, bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, true, f.err
		}
	}
	return domain.User{}, false, f.err
}

func (f *fakeUsers) UserByID(_ context.Context, id string) (domain.User, bool, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, true, f.err
		}
	}
	return domain.User{}, false, f.err
}

func (f *fakeUsers) CreateUser(_ context.Context, u domain.User) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return false, nil
		}
	}
	f.users = append(f.users, u)
	return true, nil
}

func (f *fakeUsers) UsersByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, f.err
}

func newService(t *testing.T) (*Service, *auth.Issuer) {
	t.Helper()
	hash, err := auth.HashPassword("rahasia")
	require.NoError(t, err)
	users := &fakeUsers{users: []domain.User{
		{ID: "a1", Name: "Admin", Email: "admin@scorify.id", Role: domain.RoleAdmin, PasswordHash: hash},
		{ID: "s1", Name: "Budi", Email: "budi@scorify.id", Role: domain.RoleSales, PasswordHash: hash},
		{ID: "s2", Name: "Citra", Email: "citra@scorify.id", Role: domain.RoleSales, PasswordHash: hash},
	}}
	iss := auth.NewIssuer("secret")
	return New(users, iss), iss
}

func TestLogin(t *testing.T) {
	svc, iss := newService(t)

	u, token, err := svc.Login(context.Background(), "  BUDI@scorify.id ", "rahasia")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "s1", Name: "Budi", Email: "budi@scorify.id", Role: domain.RoleSales}, u)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.ID)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, _ := newService(t)

	_, _, errUnknown := svc.Login(context.Background(), "nobody@scorify.id", "rahasia")
	_, _, errWrong := svc.Login(context.Background(), "budi@scorify.id", "salah")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(errWrong))
}

func TestLoginStoreError(t *testing.T) {
	svc := New(&fakeUsers{err: errors.New("db down")}, auth.NewIssuer("secret"))
	_, _, err := svc.Login(context.Background(), "x@y.z", "p")
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
}

func TestMe(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Me(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)

	_, err = svc.Me(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListSales(t *testing.T) {
	svc, _ := newService(t)

	sales, err := svc.ListSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "Budi", sales[0].Name)
	assert.Empty(t, sales[0].Role)
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)

	u, err := svc.Register(context.Background(), Registration{
		Name: " Dian ", Email: "Dian@Scorify.id", Phone: "081234567890", Password: "rahasia1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "dian@scorify.id", u.Email)
	assert.Equal(t, "Dian", u.Name)
	assert.Equal(t, domain.RoleSales, u.Role)

	logged, _, err := svc.Login(context.Background(), "dian@scorify.id", "rahasia1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, logged.ID)

	_, err = svc.Register(context.Background(), Registration{
		Name: "Dian 2", Email: "dian@scorify.id", Phone: "081234567890", Password: "rahasia1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	valid := Registration{Name: "Eka", Email: "eka@scorify.id", Phone: "081234567890", Password: "rahasia1"}

	cases := map[string]func(r *Registration){
		"no name":     func(r *Registration) { r.Name = "  " },
		"bad email":   func(r *Registration) { r.Email = "eka" },
		"short phone": func(r *Registration) { r.Phone = "0812" },
		"alpha phone": func(r *Registration) { r.Phone = "08123456789x" },
		"short pass":  func(r *Registration) { r.Password = "12345" },
		"bad role":    func(r *Registration) { r.Role = "Manager" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			_, err := svc.Register(context.Background(), r)
			require.Error(t, err)
			assert.Equal(t, apperror.KindInvalid, apperror.KindOf(err))
		})
	}
}
