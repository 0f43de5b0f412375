package authentication

import (
	"context"
	"regexp"
	"time"

	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/dgrijalva/jwt-go"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrInvalidPassword = errors.New("password must be at least 6 characters")
	ErrBadCredentials  = errors.New("wrong email or password")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type Service interface {
	Authenticate(ctx context.Context, request AuthenticateTransport) (JwtToken, error)
	Register(ctx context.Context, request RegisterTransport) (RegisteredTransport, error)
}

type AuthenticationService struct {
	Store interface {
		Transact(fn func(tx *gorm.DB) error) error
		AddUser(tx *gorm.DB, user store.User) (store.User, error)
		AddRole(tx *gorm.DB, role store.Role) (store.Role, error)
		DeleteUser(tx *gorm.DB, userId string) error
		CheckUserCredentials(tx *gorm.DB, email, password string) (store.User, error)
	} `inject:""`
	ParentLinker interface {
		SelfServeLinkOrCreate(ctx context.Context, userId string, request parents.LinkChildTransport) (store.Child, bool, error)
	} `inject:""`
	Config *shared.AppConfig `inject:""`
	Logger *shared.Logger    `inject:""`
}

type JwtToken struct {
	Token string `json:"token"`
}

type AppClaims struct {
	UserId string   `json:"userId" mapstructure:"userId"`
	Email  string   `json:"email" mapstructure:"email"`
	Roles  []string `json:"roles" mapstructure:"roles"`
	jwt.StandardClaims
}

func (s *AuthenticationService) Authenticate(ctx context.Context, request AuthenticateTransport) (JwtToken, error) {
	user, err := s.Store.CheckUserCredentials(nil, request.Email, request.Password)
	if err != nil {
		if errors.Cause(err) == store.ErrUserNotFound {
			return JwtToken{}, ErrBadCredentials
		}
		return JwtToken{}, errors.Wrap(err, "login failed")
	}

	return s.issueToken(user)
}

func (s *AuthenticationService) issueToken(user store.User) (JwtToken, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AppClaims{
		UserId: user.UserId.String,
		Email:  user.Email.String,
		Roles:  user.Roles.ToList(),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(time.Duration(s.Config.TokenValidityHours) * time.Hour).Unix(),
			IssuedAt:  now.Unix(),
		},
	})
	tokenString, err := token.SignedString([]byte(s.Config.TokenSecret))
	if err != nil {
		return JwtToken{}, errors.Wrap(err, "failed to sign token")
	}
	return JwtToken{Token: tokenString}, nil
}

// Register creates a parent account and, when the request carries a child
// payload, immediately links or creates that child. If the link step fails
// the freshly created account is deleted again so a retry starts clean.
func (s *AuthenticationService) Register(ctx context.Context, request RegisterTransport) (RegisteredTransport, error) {
	if !emailPattern.MatchString(request.Email) {
		return RegisteredTransport{}, ErrInvalidEmail
	}
	if len(request.Password) < 6 {
		return RegisteredTransport{}, ErrInvalidPassword
	}

	var user store.User
	err := s.Store.Transact(func(tx *gorm.DB) error {
		var err error
		user, err = s.Store.AddUser(tx, store.User{
			Name:     store.DbNullString(request.Name),
			Email:    store.DbNullString(request.Email),
			Password: store.DbNullString(request.Password),
		})
		if err != nil {
			return err
		}
		_, err = s.Store.AddRole(tx, store.Role{UserId: user.UserId.String, Role: store.ROLE_PARENT})
		return err
	})
	if err != nil {
		return RegisteredTransport{}, err
	}
	user.Roles = store.Roles{{UserId: user.UserId.String, Role: store.ROLE_PARENT}}

	ret := RegisteredTransport{UserId: user.UserId.String}

	if request.Child != nil {
		child, created, err := s.ParentLinker.SelfServeLinkOrCreate(ctx, user.UserId.String, *request.Child)
		if err != nil {
			if deleteErr := s.Store.DeleteUser(nil, user.UserId.String); deleteErr != nil {
				s.Logger.Warn(ctx, "failed to delete user after child linking failed", "userId", user.UserId.String, "err", deleteErr.Error())
			}
			return RegisteredTransport{}, err
		}
		ret.ChildId = child.ChildId.String
		ret.ChildCreated = created
	}

	token, err := s.issueToken(user)
	if err != nil {
		return RegisteredTransport{}, err
	}
	ret.Token = token.Token

	return ret, nil
}

type ServiceMiddleware func(AuthenticationService) AuthenticationService
