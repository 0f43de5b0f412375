package items

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

type NoticeTransport struct {
	Id        string `json:"id,omitempty"`
	ChildId   string `json:"childId"`
	Diapers   bool   `json:"diapers"`
	WetWipes  bool   `json:"wetWipes"`
	Clothing  bool   `json:"clothing"`
	Other     string `json:"other,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeNoticeTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) GetLatest(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetLatestEndpoint(h.Service),
		decodeChildIdTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(NoticeTransport)
		notice, err := svc.AddNotice(ctx, req)
		if err != nil {
			return nil, err
		}
		return toNoticeTransport(notice), nil
	}
}

func makeGetLatestEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		childId := request.(string)
		notice, err := svc.GetLatest(ctx, childId)
		if err != nil {
			return nil, err
		}
		return toNoticeTransport(notice), nil
	}
}

func toNoticeTransport(notice store.RequiredItemsNotice) NoticeTransport {
	return NoticeTransport{
		Id:        notice.NoticeId.String,
		ChildId:   notice.ChildId.String,
		Diapers:   notice.Diapers,
		WetWipes:  notice.WetWipes,
		Clothing:  notice.Clothing,
		Other:     notice.Other.String,
		CreatedBy: notice.CreatedBy.String,
		CreatedAt: notice.CreatedAt.UTC().String(),
	}
}

func decodeNoticeTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request NoticeTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeChildIdTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return childId, nil
}

func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrNoChild:
		w.WriteHeader(http.StatusBadRequest)
	case access.ErrForbidden, access.ErrNoAuthenticated:
		w.WriteHeader(http.StatusForbidden)
	case store.ErrChildNotFound, store.ErrNoticeNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
