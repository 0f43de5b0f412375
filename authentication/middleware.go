package authentication

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Kanir1/KindergartenApp/shared"

	"github.com/dgrijalva/jwt-go"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Authenticator guards routes with bearer-token authentication. Tokens are
// the HMAC tokens issued by AuthenticationService.
type Authenticator struct {
	Config *shared.AppConfig `inject:""`
}

// Roles wraps next so only authenticated users holding at least one of the
// given roles get through. Claims end up in the request context for the
// downstream handlers.
func (a *Authenticator) Roles(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		authorizationHeader := req.Header.Get("authorization")
		if authorizationHeader == "" {
			shared.HttpError(w, shared.NewError("missing authorization token"), http.StatusUnauthorized)
			return
		}

		bearerToken := strings.Split(authorizationHeader, " ")
		if len(bearerToken) != 2 {
			shared.HttpError(w, shared.NewError("invalid authorization header"), http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(bearerToken[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected token signing method")
			}
			return []byte(a.Config.TokenSecret), nil
		})
		if err != nil {
			shared.HttpError(w, shared.NewError(err.Error()), http.StatusUnauthorized)
			return
		}
		if !token.Valid {
			shared.HttpError(w, shared.NewError("invalid authorization token"), http.StatusUnauthorized)
			return
		}

		var claims AppClaims
		if err := mapstructure.Decode(token.Claims.(jwt.MapClaims), &claims); err != nil {
			shared.HttpError(w, shared.NewError("malformed token claims"), http.StatusUnauthorized)
			return
		}

		if !intersects(claims.Roles, roles) {
			shared.HttpError(w, shared.NewError(fmt.Sprintf("you must be %v to use this service", roles)), http.StatusForbidden)
			return
		}

		req = req.WithContext(shared.ContextWithClaims(req.Context(), claims.UserId, claims.Roles))
		next.ServeHTTP(w, req)
	})
}

func intersects(list1, list2 []string) bool {
	for _, v1 := range list1 {
		for _, v2 := range list2 {
			if v1 == v2 {
				return true
			}
		}
	}
	return false
}
