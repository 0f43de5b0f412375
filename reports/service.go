package reports

import (
	"context"
	"database/sql"

	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoChild           = errors.New("childId is mandatory")
	ErrNoDate            = errors.New("date is mandatory")
	ErrNoMonth           = errors.New("month is mandatory")
	ErrInvalidReportType = errors.New("type must be preSleep or postSleep")
)

type Service interface {
	AddDaily(ctx context.Context, request DailyReportTransport) (store.DailyReport, error)
	GetDaily(ctx context.Context, reportId string) (store.DailyReport, error)
	ListDaily(ctx context.Context, options store.ReportSearchOptions) ([]store.DailyReport, error)
	AddMonthly(ctx context.Context, request MonthlyReportTransport) (store.MonthlyReport, error)
	GetMonthly(ctx context.Context, reportId string) (store.MonthlyReport, error)
	ListMonthly(ctx context.Context, options store.ReportSearchOptions) ([]store.MonthlyReport, error)
}

type ReportService struct {
	Store interface {
		AddDailyReport(tx *gorm.DB, report store.DailyReport) (store.DailyReport, error)
		ListDailyReports(tx *gorm.DB, options store.ReportSearchOptions) ([]store.DailyReport, error)
		AddMonthlyReport(tx *gorm.DB, report store.MonthlyReport) (store.MonthlyReport, error)
		ListMonthlyReports(tx *gorm.DB, options store.ReportSearchOptions) ([]store.MonthlyReport, error)
	} `inject:""`
	Guard interface {
		CheckChild(ctx context.Context, childId string) (store.Child, error)
		CheckDailyReport(ctx context.Context, reportId string) (store.DailyReport, error)
		CheckMonthlyReport(ctx context.Context, reportId string) (store.MonthlyReport, error)
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

func (s *ReportService) AddDaily(ctx context.Context, request DailyReportTransport) (store.DailyReport, error) {
	if request.ChildId == "" {
		return store.DailyReport{}, ErrNoChild
	}
	if request.Date == "" {
		return store.DailyReport{}, ErrNoDate
	}
	if request.Type != store.REPORT_PRE_SLEEP && request.Type != store.REPORT_POST_SLEEP {
		return store.DailyReport{}, ErrInvalidReportType
	}

	if _, err := s.Guard.CheckChild(ctx, request.ChildId); err != nil {
		return store.DailyReport{}, err
	}

	report, err := s.Store.AddDailyReport(nil, store.DailyReport{
		ChildId:       store.DbNullString(request.ChildId),
		Date:          store.DbNullString(request.Date),
		Type:          store.DbNullString(request.Type),
		Breakfast:     store.DbNullString(request.Breakfast),
		Lunch:         store.DbNullString(request.Lunch),
		Snack:         store.DbNullString(request.Snack),
		MilkMl:        dbNullInt64(request.MilkMl),
		SleepMinutes:  dbNullInt64(request.SleepMinutes),
		BathroomCount: dbNullInt64(request.BathroomCount),
		Notes:         store.DbNullString(request.Notes),
		CreatedBy:     store.DbNullString(shared.GetUserId(ctx)),
	})
	if err != nil {
		return store.DailyReport{}, errors.Wrap(err, "failed to add daily report")
	}
	return report, nil
}

// GetDaily never checks the report on its own: the guard resolves it to the
// owning child first.
func (s *ReportService) GetDaily(ctx context.Context, reportId string) (store.DailyReport, error) {
	return s.Guard.CheckDailyReport(ctx, reportId)
}

func (s *ReportService) ListDaily(ctx context.Context, options store.ReportSearchOptions) ([]store.DailyReport, error) {
	options, err := s.scope(ctx, options)
	if err != nil {
		return nil, err
	}
	reports, err := s.Store.ListDailyReports(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list daily reports")
	}
	return reports, nil
}

func (s *ReportService) AddMonthly(ctx context.Context, request MonthlyReportTransport) (store.MonthlyReport, error) {
	if request.ChildId == "" {
		return store.MonthlyReport{}, ErrNoChild
	}
	if request.Month == "" {
		return store.MonthlyReport{}, ErrNoMonth
	}

	if _, err := s.Guard.CheckChild(ctx, request.ChildId); err != nil {
		return store.MonthlyReport{}, err
	}

	report, err := s.Store.AddMonthlyReport(nil, store.MonthlyReport{
		ChildId: store.DbNullString(request.ChildId),
		Month:   store.DbNullString(request.Month),
		Summary: store.DbNullString(request.Summary),
		Notes:   store.DbNullString(request.Notes),
	})
	if err != nil {
		return store.MonthlyReport{}, errors.Wrap(err, "failed to add monthly report")
	}
	return report, nil
}

func (s *ReportService) GetMonthly(ctx context.Context, reportId string) (store.MonthlyReport, error) {
	return s.Guard.CheckMonthlyReport(ctx, reportId)
}

func (s *ReportService) ListMonthly(ctx context.Context, options store.ReportSearchOptions) ([]store.MonthlyReport, error) {
	options, err := s.scope(ctx, options)
	if err != nil {
		return nil, err
	}
	reports, err := s.Store.ListMonthlyReports(nil, options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list monthly reports")
	}
	return reports, nil
}

// scope restricts listings for parents to their own children. An explicit
// childId is checked through the guard; without one the ownership query
// filter does the restriction.
func (s *ReportService) scope(ctx context.Context, options store.ReportSearchOptions) (store.ReportSearchOptions, error) {
	if options.ChildId != "" {
		if _, err := s.Guard.CheckChild(ctx, options.ChildId); err != nil {
			return store.ReportSearchOptions{}, err
		}
		return options, nil
	}
	if !shared.HasRole(ctx, store.ROLE_ADMIN) {
		options.ParentId = shared.GetUserId(ctx)
	}
	return options, nil
}

func dbNullInt64(value int64) sql.NullInt64 {
	if value == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: value, Valid: true}
}

// ServiceMiddleware is a chainable behavior modifier for ReportService.
type ServiceMiddleware func(ReportService) ReportService
