package authsvc

import (
	"context"
	"strings"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	authrepo "github.com/wayddd1/VanEaseRentalSystem/repository/auth"
	"github.com/wayddd1/VanEaseRentalSystem/service/svcerr"
	"github.com/wayddd1/VanEaseRentalSystem/util/database"
	"github.com/wayddd1/VanEaseRentalSystem/util/hash"
	jwtutil "github.com/wayddd1/VanEaseRentalSystem/util/jwt"
)

const (
	MsgEmailTaken   = "email already registered"
	MsgInvalidCreds = "invalid email or password"
)

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Me(ctx context.Context, userID int64) (*model.User, error)

	// CreateUser is the admin path for staff accounts.
	CreateUser(ctx context.Context, who model.Identity, req model.CreateUserReq) (*model.User, error)
	// EnsureAdmin creates the bootstrap ADMIN account unless the email is already taken.
	EnsureAdmin(ctx context.Context, name, email, password string) (bool, error)
}

type service struct {
	ur       authrepo.Repo
	secret   string
	ttlHours int
}

func New(ur authrepo.Repo, secret string, ttlHours int) Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &service{ur: ur, secret: secret, ttlHours: ttlHours}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	u, err := s.create(ctx, req.Name, req.Email, req.Phone, req.Password, model.RoleCustomer)
	if err != nil {
		return nil, "", err
	}
	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) CreateUser(ctx context.Context, who model.Identity, req model.CreateUserReq) (*model.User, error) {
	if who.Role != model.RoleAdmin {
		return nil, svcerr.New(svcerr.ErrUnauthorized, "admin role required")
	}
	if !req.Role.Valid() {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "unknown role %s", req.Role)
	}
	return s.create(ctx, req.Name, req.Email, req.Phone, req.Password, req.Role)
}

func (s *service) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if existing, err := s.ur.ByEmail(ctx, strings.ToLower(strings.TrimSpace(email))); err == nil && existing != nil {
		return false, nil
	}
	if _, err := s.create(ctx, name, email, "-", password, model.RoleAdmin); err != nil {
		if svcerr.Code(err) == svcerr.ErrConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *service) create(ctx context.Context, name, email, phone, password string, role model.Role) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" || len(password) < 6 {
		return nil, svcerr.New(svcerr.ErrInvalidInput, "name, email and a password of at least 6 characters are required")
	}

	if existing, err := s.ur.ByEmail(ctx, email); err == nil && existing != nil {
		return nil, svcerr.New(svcerr.ErrConflict, MsgEmailTaken)
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		Role:         role,
		PasswordHash: hashed,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		if derr := mapDuplicateErr(err); derr != nil {
			return nil, derr
		}
		return nil, err
	}
	return u, nil
}

func mapDuplicateErr(err error) error {
	if cn, ok := database.UniqueViolation(err); ok {
		if strings.Contains(strings.ToLower(cn), "email") {
			return svcerr.Wrap(svcerr.ErrConflict, err, MsgEmailTaken)
		}
		return svcerr.Wrap(svcerr.ErrConflict, err, "account already exists")
	}
	return nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", svcerr.New(svcerr.ErrInvalidInput, "email and password are required")
	}
	u, err := s.ur.ByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", svcerr.New(svcerr.ErrUnauthenticated, MsgInvalidCreds)
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", svcerr.New(svcerr.ErrUnauthenticated, MsgInvalidCreds)
	}
	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Me(ctx context.Context, userID int64) (*model.User, error) {
	u, err := s.ur.ByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, svcerr.New(svcerr.ErrNotFound, "user %d not found", userID)
		}
		return nil, err
	}
	return u, nil
}
