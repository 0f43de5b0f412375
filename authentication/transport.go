package authentication

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

type AuthenticateTransport struct {
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type RegisterTransport struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`

	// Optional child to link or create right away.
	Child *parents.LinkChildTransport `json:"child,omitempty"`
}

type RegisteredTransport struct {
	UserId       string `json:"userId"`
	Token        string `json:"token"`
	ChildId      string `json:"childId,omitempty"`
	ChildCreated bool   `json:"childCreated,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Login(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeLoginEndpoint(h.Service),
		decodeAuthenticateTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Register(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeRegisterEndpoint(h.Service),
		decodeRegisterTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func makeLoginEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(AuthenticateTransport)
		return svc.Authenticate(ctx, req)
	}
}

func makeRegisterEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RegisterTransport)
		return svc.Register(ctx, req)
	}
}

func decodeAuthenticateTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request AuthenticateTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeRegisterTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request RegisterTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrInvalidEmail, ErrInvalidPassword, parents.ErrInvalidExternalId, parents.ErrInvalidBirthDate:
		w.WriteHeader(http.StatusBadRequest)
	case ErrBadCredentials:
		w.WriteHeader(http.StatusUnauthorized)
	case store.ErrEmailTaken, store.ErrExternalIdTaken:
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
