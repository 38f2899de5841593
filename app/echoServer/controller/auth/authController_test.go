package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/jwtx"
	"github.com/wayddd1/VanEaseRentalSystem/app/echoServer/validation"
	"github.com/wayddd1/VanEaseRentalSystem/model"
	authsvc "github.com/wayddd1/VanEaseRentalSystem/service/auth"
	jwtutil "github.com/wayddd1/VanEaseRentalSystem/util/jwt"
)

type memUsers struct{ byEmail map[string]*model.User }

func (m *memUsers) Create(ctx context.Context, u *model.User) error {
	u.ID = int64(len(m.byEmail) + 1)
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) ByID(ctx context.Context, id int64) (*model.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func newCtl() (*Controller, *memUsers) {
	users := &memUsers{byEmail: map[string]*model.User{}}
	return &Controller{
		Svc: authsvc.New(users, "test-secret", 1),
		V:   validation.Engine(),
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, users
}

func post(t *testing.T, h echo.HandlerFunc, who *model.Identity, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if who != nil {
		jwtx.SetIdentity(c, *who)
	}
	require.NoError(t, h(c))
	return rec
}

func TestRegister_RoleInPayloadIsIgnored(t *testing.T) {
	ctl, users := newCtl()

	rec := post(t, ctl.Register, nil,
		`{"name":"Mallory","email":"mallory@example.com","phone":"1","password":"123456","role":"MANAGER"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, model.RoleCustomer, users.byEmail["mallory@example.com"].Role)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	claims, err := jwtutil.ParseAuth(body.Token, "test-secret")
	require.NoError(t, err)
	_, role, err := jwtutil.Subject(claims)
	require.NoError(t, err)
	require.Equal(t, "CUSTOMER", role)
}

func TestCreateUser(t *testing.T) {
	ctl, users := newCtl()
	body := `{"name":"Fleet Boss","email":"boss@example.com","phone":"1","password":"123456","role":"MANAGER"}`

	mgr := model.Identity{UserID: 7, Role: model.RoleManager}
	rec := post(t, ctl.CreateUser, &mgr, body)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, users.byEmail)

	admin := model.Identity{UserID: 1, Role: model.RoleAdmin}
	rec = post(t, ctl.CreateUser, &admin, body)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, model.RoleManager, users.byEmail["boss@example.com"].Role)

	rec = post(t, ctl.CreateUser, &admin, `{"name":"x","email":"x@example.com","phone":"1","password":"123456","role":"OWNER"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
