package parents

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Kanir1/KindergartenApp/access"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var (
	ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")
)

type LinkChildrenTransport struct {
	ParentId string   `json:"parentId"`
	ChildIds []string `json:"childIds"`
}

type LinkChildTransport struct {
	ExternalId string `json:"externalId"`
	Name       string `json:"name,omitempty"`
	BirthDate  string `json:"birthDate,omitempty"`
}

type LinkedChildTransport struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	ExternalId string   `json:"externalId"`
	BirthDate  string   `json:"birthDate"`
	Owners     []string `json:"owners"`
	Created    bool     `json:"created"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Link(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeLinkEndpoint(h.Service),
		decodeLinkChildrenTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Unlink(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUnlinkEndpoint(h.Service),
		decodeLinkChildrenTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) SelfServeLink(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeSelfServeLinkEndpoint(h.Service),
		decodeLinkChildTransport,
		encodeLinkedChildResponse,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeParentIdTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeLinkEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(LinkChildrenTransport)
		return svc.Link(ctx, req.ParentId, req.ChildIds)
	}
}

func makeUnlinkEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(LinkChildrenTransport)
		return svc.Unlink(ctx, req.ParentId, req.ChildIds)
	}
}

func makeSelfServeLinkEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(LinkChildTransport)
		child, created, err := svc.SelfServeLinkOrCreate(ctx, shared.GetUserId(ctx), req)
		if err != nil {
			return nil, err
		}

		return LinkedChildTransport{
			Id:         child.ChildId.String,
			Name:       child.Name.String,
			ExternalId: child.ExternalId.String,
			BirthDate:  child.BirthDate.UTC().String(),
			Owners:     child.Owners(),
			Created:    created,
		}, nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		parentId := request.(string)
		return svc.DeleteParent(ctx, parentId)
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		return svc.ListParents(ctx)
	}
}

func decodeLinkChildrenTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	parentId, ok := vars["parentId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request LinkChildrenTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.ParentId = parentId
	return request, nil
}

func decodeLinkChildTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request LinkChildTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeParentIdTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	parentId, ok := vars["parentId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return parentId, nil
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// 201 when the child was created, 200 when the caller joined an existing one.
func encodeLinkedChildResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	ret := response.(LinkedChildTransport)
	code := http.StatusOK
	if ret.Created {
		code = http.StatusCreated
	}
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(ret)
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrNoChildIds, ErrNotParent, ErrInvalidExternalId, ErrInvalidBirthDate:
		w.WriteHeader(http.StatusBadRequest)
	case access.ErrForbidden, access.ErrNoAuthenticated:
		w.WriteHeader(http.StatusForbidden)
	case store.ErrUserNotFound, store.ErrChildNotFound:
		w.WriteHeader(http.StatusNotFound)
	case store.ErrExternalIdTaken:
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
