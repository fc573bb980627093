package echoapi

import (
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/user"
)

var contextUserKey = "user"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	IsStudent bool     `json:"is_student,omitempty"`
	IsTutor   bool     `json:"is_tutor,omitempty"`
	IsAdmin   bool     `json:"is_admin,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// jwtHelper bundles the signing configuration so nothing reads global state.
type jwtHelper struct {
	conf   *core.Config
	config middleware.JWTConfig
}

func newJWTHelper(conf *core.Config) *jwtHelper {
	return &jwtHelper{
		conf: conf,
		config: middleware.JWTConfig{
			SigningKey:    []byte(conf.SecretKey),
			SigningMethod: middleware.AlgorithmHS256,
			ContextKey:    "userToken",
			Claims:        new(Claims),
		},
	}
}

func (h *jwtHelper) getUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    h.conf.AppName,
			Subject:   usr.ID,
			Audience:  "Walimu",
			ExpiresAt: now.Add(h.conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username:  usr.Username,
		Email:     usr.Email,
		IsStudent: usr.IsStudent(),
		IsTutor:   usr.IsTutor(),
		IsAdmin:   usr.IsAdmin(),
		Roles:     usr.Roles,
	}
}

func (h *jwtHelper) authenticate(ctx echo.Context, uname, pwd string, svc user.ServiceInterface) (*Claims, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx.Request().Context(), uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if usr.IsActive != nil && !*usr.IsActive {
		return nil, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return h.getUserClaims(usr), nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (h *jwtHelper) GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(h.config.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(h.config.SigningKey.([]byte))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

// GenerateUserToken is GenerateToken for a known user, used by the admin CLI
// and tests.
func GenerateUserToken(conf *core.Config, usr user.User) (string, error) {
	h := newJWTHelper(conf)
	return h.GenerateToken(h.getUserClaims(usr))
}

func (h *jwtHelper) getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(h.config.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func (h *jwtHelper) getContextUser(ctx echo.Context, svc user.ServiceInterface) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := h.getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

func (h *jwtHelper) contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := h.getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}
