package reports

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

type DailyReportTransport struct {
	Id            string `json:"id,omitempty"`
	ChildId       string `json:"childId"`
	Date          string `json:"date"` // YYYY-MM-DD
	Type          string `json:"type"`
	Breakfast     string `json:"breakfast,omitempty"`
	Lunch         string `json:"lunch,omitempty"`
	Snack         string `json:"snack,omitempty"`
	MilkMl        int64  `json:"milkMl,omitempty"`
	SleepMinutes  int64  `json:"sleepMinutes,omitempty"`
	BathroomCount int64  `json:"bathroomCount,omitempty"`
	Notes         string `json:"notes,omitempty"`
	CreatedBy     string `json:"createdBy,omitempty"`
}

type MonthlyReportTransport struct {
	Id      string `json:"id,omitempty"`
	ChildId string `json:"childId"`
	Month   string `json:"month"` // YYYY-MM
	Summary string `json:"summary,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) AddDaily(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddDailyEndpoint(h.Service),
		decodeDailyReportTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) GetDaily(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetDailyEndpoint(h.Service),
		decodeReportIdTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) ListDaily(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListDailyEndpoint(h.Service),
		decodeReportSearchTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) AddMonthly(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddMonthlyEndpoint(h.Service),
		decodeMonthlyReportTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) GetMonthly(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetMonthlyEndpoint(h.Service),
		decodeReportIdTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) ListMonthly(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListMonthlyEndpoint(h.Service),
		decodeReportSearchTransport,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeAddDailyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(DailyReportTransport)
		report, err := svc.AddDaily(ctx, req)
		if err != nil {
			return nil, err
		}
		return toDailyTransport(report), nil
	}
}

func makeGetDailyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		reportId := request.(string)
		report, err := svc.GetDaily(ctx, reportId)
		if err != nil {
			return nil, err
		}
		return toDailyTransport(report), nil
	}
}

func makeListDailyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		options := request.(store.ReportSearchOptions)
		reports, err := svc.ListDaily(ctx, options)
		if err != nil {
			return nil, err
		}
		ret := []DailyReportTransport{}
		for _, report := range reports {
			ret = append(ret, toDailyTransport(report))
		}
		return ret, nil
	}
}

func makeAddMonthlyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(MonthlyReportTransport)
		report, err := svc.AddMonthly(ctx, req)
		if err != nil {
			return nil, err
		}
		return toMonthlyTransport(report), nil
	}
}

func makeGetMonthlyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		reportId := request.(string)
		report, err := svc.GetMonthly(ctx, reportId)
		if err != nil {
			return nil, err
		}
		return toMonthlyTransport(report), nil
	}
}

func makeListMonthlyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		options := request.(store.ReportSearchOptions)
		reports, err := svc.ListMonthly(ctx, options)
		if err != nil {
			return nil, err
		}
		ret := []MonthlyReportTransport{}
		for _, report := range reports {
			ret = append(ret, toMonthlyTransport(report))
		}
		return ret, nil
	}
}

func toDailyTransport(report store.DailyReport) DailyReportTransport {
	return DailyReportTransport{
		Id:            report.ReportId.String,
		ChildId:       report.ChildId.String,
		Date:          report.Date.String,
		Type:          report.Type.String,
		Breakfast:     report.Breakfast.String,
		Lunch:         report.Lunch.String,
		Snack:         report.Snack.String,
		MilkMl:        report.MilkMl.Int64,
		SleepMinutes:  report.SleepMinutes.Int64,
		BathroomCount: report.BathroomCount.Int64,
		Notes:         report.Notes.String,
		CreatedBy:     report.CreatedBy.String,
	}
}

func toMonthlyTransport(report store.MonthlyReport) MonthlyReportTransport {
	return MonthlyReportTransport{
		Id:      report.ReportId.String,
		ChildId: report.ChildId.String,
		Month:   report.Month.String,
		Summary: report.Summary.String,
		Notes:   report.Notes.String,
	}
}

func decodeDailyReportTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request DailyReportTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeMonthlyReportTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request MonthlyReportTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeReportIdTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	reportId, ok := vars["reportId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return reportId, nil
}

func decodeReportSearchTransport(_ context.Context, r *http.Request) (interface{}, error) {
	query := r.URL.Query()
	return store.ReportSearchOptions{
		ChildId: query.Get("child"),
		From:    query.Get("from"),
		To:      query.Get("to"),
	}, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrNoChild, ErrNoDate, ErrNoMonth, ErrInvalidReportType:
		w.WriteHeader(http.StatusBadRequest)
	case access.ErrForbidden, access.ErrNoAuthenticated:
		w.WriteHeader(http.StatusForbidden)
	case store.ErrChildNotFound, store.ErrReportNotFound:
		w.WriteHeader(http.StatusNotFound)
	case store.ErrReportAlreadyExists:
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
