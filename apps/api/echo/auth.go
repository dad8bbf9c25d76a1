package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-offline/core"
	"github.com/trezcool/masomo-offline/core/session"
)

const teacherTokenKey = "teacherToken"

// Claims represents the authorization claims of a teacher session, transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name      string `json:"name,omitempty"`
	IsTeacher bool   `json:"is_teacher,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    teacherTokenKey,
		Claims:        new(Claims),
	}
}

func getTeacherClaims(conf *core.Config, ts session.TeacherSession) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   ts.Profile.ID,
			ExpiresAt: ts.IssuedAt.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  ts.IssuedAt.Unix(),
		},
		Name:      ts.Profile.Name,
		IsTeacher: ts.Profile.Role == session.RoleTeacher,
	}
}

// generateToken generates a signed JWT token string representing the Claims.
func generateToken(jwtConf middleware.JWTConfig, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(teacherTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
