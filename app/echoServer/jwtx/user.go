package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/wayddd1/VanEaseRentalSystem/model"
	jwtutil "github.com/wayddd1/VanEaseRentalSystem/util/jwt"
)

const identityKey = "identity"

// FromToken reads the caller out of the token echo-jwt stored under "user".
func FromToken(c echo.Context) (model.Identity, error) {
	tok, ok := c.Get("user").(*jwt.Token)
	if !ok || tok == nil {
		return model.Identity{}, errors.New("no jwt token in context")
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return model.Identity{}, errors.New("invalid jwt claims")
	}
	id, role, err := jwtutil.Subject(claims)
	if err != nil {
		return model.Identity{}, err
	}
	r := model.Role(role)
	if !r.Valid() {
		return model.Identity{}, errors.New("unknown role in claims")
	}
	return model.Identity{UserID: id, Role: r}, nil
}

func SetIdentity(c echo.Context, id model.Identity) { c.Set(identityKey, id) }

func IdentityFromContext(c echo.Context) (model.Identity, error) {
	id, ok := c.Get(identityKey).(model.Identity)
	if !ok || id.UserID <= 0 {
		return model.Identity{}, errors.New("no identity in context")
	}
	return id, nil
}

// Identity returns the caller, or the zero Identity for anonymous requests.
func Identity(c echo.Context) model.Identity {
	id, _ := IdentityFromContext(c)
	return id
}
