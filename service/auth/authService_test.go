// service/auth/auth_service_test.go
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	authrepo "github.com/wayddd1/VanEaseRentalSystem/repository/auth"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/hash"
	jwtutil "github.com/wayddd1/VanEaseRentalSystem/util/jwt"
)

type mockRepo struct {
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	createFn  func(ctx context.Context, u *model.User) error
}

var _ authrepo.Repo = (*mockRepo)(nil)

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, fmt.Errorf("user %d: %w", id, pgx.ErrNoRows)
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()

	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {

			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret", 24)

	req := model.RegisterReq{
		Name:     "Juan Dela Cruz",
		Email:    "USER@Example.COM",
		Phone:    "09171234567",
		Password: "supersecret",
	}

	u, tok, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "user@example.com", u.Email)
	require.Equal(t, model.RoleCustomer, u.Role)
	require.NotEmpty(t, u.PasswordHash)

	claims, err := jwtutil.ParseAuth("Bearer "+tok, "test-secret")
	require.NoError(t, err)
	id, role, err := jwtutil.Subject(claims)
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, "CUSTOMER", role)
}

func TestRegister_AlwaysCustomer(t *testing.T) {
	var stored model.Role
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		stored = u.Role
		u.ID = 3
		return nil
	}}
	svc := New(m, "test-secret", 24)

	u, tok, err := svc.Register(context.Background(), model.RegisterReq{
		Name: "Fleet Boss", Email: "boss@example.com", Phone: "1", Password: "123456",
	})
	require.NoError(t, err)
	require.Equal(t, model.RoleCustomer, stored)
	require.Equal(t, model.RoleCustomer, u.Role)

	claims, err := jwtutil.ParseAuth(tok, "test-secret")
	require.NoError(t, err)
	_, role, err := jwtutil.Subject(claims)
	require.NoError(t, err)
	require.Equal(t, "CUSTOMER", role)
}

func TestCreateUser_AdminOnly(t *testing.T) {
	req := model.CreateUserReq{
		Name: "Fleet Boss", Email: "Boss@Example.com", Phone: "1", Password: "123456", Role: model.RoleManager,
	}
	m := &mockRepo{createFn: func(ctx context.Context, u *model.User) error {
		u.ID = 11
		return nil
	}}
	svc := New(m, "test-secret", 24)

	for _, who := range []model.Identity{
		{},
		{UserID: 5, Role: model.RoleCustomer},
		{UserID: 6, Role: model.RoleManager},
	} {
		_, err := svc.CreateUser(context.Background(), who, req)
		require.Equal(t, svcerr.ErrUnauthorized, svcerr.Code(err), who.Role)
	}

	u, err := svc.CreateUser(context.Background(), model.Identity{UserID: 1, Role: model.RoleAdmin}, req)
	require.NoError(t, err)
	require.Equal(t, model.RoleManager, u.Role)
	require.Equal(t, "boss@example.com", u.Email)

	req.Role = "OWNER"
	_, err = svc.CreateUser(context.Background(), model.Identity{UserID: 1, Role: model.RoleAdmin}, req)
	require.Equal(t, svcerr.ErrInvalidInput, svcerr.Code(err))
}

func TestEnsureAdmin(t *testing.T) {
	users := map[string]*model.User{}
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			if u, ok := users[email]; ok {
				return u, nil
			}
			return nil, pgx.ErrNoRows
		},
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = int64(len(users) + 1)
			users[u.Email] = u
			return nil
		},
	}
	svc := New(m, "test-secret", 24)

	created, err := svc.EnsureAdmin(context.Background(), "Root", "ROOT@example.com", "rootpass")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, model.RoleAdmin, users["root@example.com"].Role)

	created, err = svc.EnsureAdmin(context.Background(), "Root", "root@example.com", "rootpass")
	require.NoError(t, err)
	require.False(t, created)
	require.Len(t, users, 1)
}

func TestRegister_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret", 24)

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "x",
		Email:    " ",
		Password: "123",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.ErrInvalidInput, svcerr.Code(err))
}

func TestRegister_EmailTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 9, Email: email}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "Juan",
		Email:    "taken@example.com",
		Password: "123456",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.ErrConflict, svcerr.Code(err))
	require.Equal(t, MsgEmailTaken, svcerr.Message(err))
}

func TestRegister_EmailRace(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"}
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(context.Background(), model.RegisterReq{
		Name: "Juan", Email: "race@example.com", Password: "123456",
	})
	require.Equal(t, svcerr.ErrConflict, svcerr.Code(err))
}

func TestRegister_CreateError(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return errors.New("db down")
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Register(ctx, model.RegisterReq{
		Name:     "ok",
		Email:    "ok@example.com",
		Password: "123456",
	})
	require.Error(t, err)

	require.Equal(t, svcerr.ErrCode(""), svcerr.Code(err))
}

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	pw := "supersecret"
	hashed := mustHash(t, pw)

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			require.Equal(t, "user@example.com", email)
			return &model.User{
				ID:           7,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleManager,
			}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	u, tok, err := svc.Login(ctx, model.LoginReq{
		Email:    "User@Example.com",
		Password: pw,
	})
	require.NoError(t, err)
	require.NotNil(t, u)
	require.NotEmpty(t, tok)
	require.Equal(t, int64(7), u.ID)

	claims, err := jwtutil.ParseAuth(tok, "test-secret")
	require.NoError(t, err)
	_, role, err := jwtutil.Subject(claims)
	require.NoError(t, err)
	require.Equal(t, "MANAGER", role)
}

func TestLogin_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret", 24)

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    " ",
		Password: "",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.ErrInvalidInput, svcerr.Code(err))
}

func TestLogin_UserNotFound(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{}, "test-secret", 24)

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.ErrUnauthenticated, svcerr.Code(err))
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()

	hashed := mustHash(t, "correct-password")

	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           101,
				Email:        "user@example.com",
				PasswordHash: hashed,
				Role:         model.RoleCustomer,
			}, nil
		},
	}
	svc := New(m, "test-secret", 24)

	_, _, err := svc.Login(ctx, model.LoginReq{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.Equal(t, svcerr.ErrUnauthenticated, svcerr.Code(err))
	require.Equal(t, MsgInvalidCreds, svcerr.Message(err))
}

func TestMe(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Name: "Juan"}, nil
		},
	}
	u, err := New(m, "test-secret", 24).Me(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, "Juan", u.Name)

	_, err = New(&mockRepo{}, "test-secret", 24).Me(context.Background(), 5)
	require.Equal(t, svcerr.ErrNotFound, svcerr.Code(err))
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, svcerr.ErrConflict, svcerr.Code(fmt.Errorf("wrapped: %w", svcerr.New(svcerr.ErrConflict, "x"))))
	require.Equal(t, svcerr.ErrCode(""), svcerr.Code(errors.New("plain")))
}
