package children

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Kanir1/KindergartenApp/access"
	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/storage"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var (
	ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")
)

type ChildTransport struct {
	Id               string   `json:"id"`
	Name             string   `json:"name"`
	ExternalId       string   `json:"externalId"`
	BirthDate        string   `json:"birthDate"`
	MedicalCondition string   `json:"medicalCondition"`
	SpecialNotes     string   `json:"specialNotes"`
	Owners           []string `json:"owners"`
}

type PickupTransport struct {
	Id      string `json:"id,omitempty"`
	ChildId string `json:"childId"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Photo   string `json:"photo,omitempty"`
	AddedBy string `json:"addedBy,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeChildTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeChildIdTransport,
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

func (h *HandlerFactory) ListMine(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListMineEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) UpdateParentNotes(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateParentNotesEndpoint(h.Service),
		decodeUpdateChildTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeChildIdTransport,
		shared.EncodeResponse204,
		opts...,
	)
}

func (h *HandlerFactory) AddPickup(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddPickupEndpoint(h.Service),
		decodePickupTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) ListPickups(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListPickupsEndpoint(h.Service),
		decodeChildIdTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) RemovePickup(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeRemovePickupEndpoint(h.Service),
		decodePickupIdTransport,
		shared.EncodeResponse204,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		child, err := svc.AddChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return toChildTransport(child), nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		childId := request.(string)
		child, err := svc.GetChild(ctx, childId)
		if err != nil {
			return nil, err
		}
		return toChildTransport(child), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListChildren(ctx)
		if err != nil {
			return nil, err
		}
		return toChildTransports(children), nil
	}
}

func makeListMineEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListMine(ctx)
		if err != nil {
			return nil, err
		}
		return toChildTransports(children), nil
	}
}

func makeUpdateParentNotesEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		child, err := svc.UpdateParentNotes(ctx, req)
		if err != nil {
			return nil, err
		}
		return toChildTransport(child), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		childId := request.(string)
		if err := svc.DeleteChild(ctx, childId); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func makeAddPickupEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(PickupTransport)
		pickup, err := svc.AddPickup(ctx, req)
		if err != nil {
			return nil, err
		}
		return PickupTransport{
			Id:      pickup.PickupId.String,
			ChildId: pickup.ChildId.String,
			Name:    pickup.Name.String,
			Phone:   pickup.Phone.String,
			AddedBy: pickup.AddedBy.String,
		}, nil
	}
}

func makeListPickupsEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		childId := request.(string)
		pickups, err := svc.ListPickups(ctx, childId)
		if err != nil {
			return nil, err
		}
		ret := []PickupTransport{}
		for _, pickup := range pickups {
			ret = append(ret, PickupTransport{
				Id:      pickup.PickupId.String,
				ChildId: pickup.ChildId.String,
				Name:    pickup.Name.String,
				Phone:   pickup.Phone.String,
				AddedBy: pickup.AddedBy.String,
			})
		}
		return ret, nil
	}
}

func makeRemovePickupEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(PickupTransport)
		if err := svc.RemovePickup(ctx, req.ChildId, req.Id); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func toChildTransport(child store.Child) ChildTransport {
	return ChildTransport{
		Id:               child.ChildId.String,
		Name:             child.Name.String,
		ExternalId:       child.ExternalId.String,
		BirthDate:        child.BirthDate.UTC().String(),
		MedicalCondition: child.MedicalCondition.String,
		SpecialNotes:     child.SpecialNotes.String,
		Owners:           child.Owners(),
	}
}

func toChildTransports(children []store.Child) []ChildTransport {
	ret := []ChildTransport{}
	for _, child := range children {
		ret = append(ret, toChildTransport(child))
	}
	return ret
}

func decodeChildTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request ChildTransport
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

func decodeUpdateChildTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request ChildTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.Id = childId
	return request, nil
}

func decodePickupTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request PickupTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.ChildId = childId
	return request, nil
}

func decodePickupIdTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	pickupId, ok := vars["pickupId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return PickupTransport{ChildId: childId, Id: pickupId}, nil
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrNoName, ErrNoBirthDate, ErrNoPickupName, ErrNoPickupPhone, ErrNoPickupPhoto,
		parents.ErrInvalidExternalId, parents.ErrInvalidBirthDate, storage.ErrUnsupportedFileFormat:
		w.WriteHeader(http.StatusBadRequest)
	case access.ErrForbidden, access.ErrNoAuthenticated:
		w.WriteHeader(http.StatusForbidden)
	case store.ErrChildNotFound, store.ErrPickupNotFound:
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
