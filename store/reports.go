package store

import (
	"database/sql"
	"errors"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrReportAlreadyExists = errors.New("a report for this child and period already exists")
)

const (
	REPORT_PRE_SLEEP  = "preSleep"
	REPORT_POST_SLEEP = "postSleep"
)

type DailyReport struct {
	ReportId      sql.NullString `json:"reportId"`
	ChildId       sql.NullString `json:"childId"`
	Date          sql.NullString `json:"date"` // YYYY-MM-DD
	Type          sql.NullString `json:"type"`
	Breakfast     sql.NullString `json:"breakfast"`
	Lunch         sql.NullString `json:"lunch"`
	Snack         sql.NullString `json:"snack"`
	MilkMl        sql.NullInt64  `json:"milkMl"`
	SleepMinutes  sql.NullInt64  `json:"sleepMinutes"`
	BathroomCount sql.NullInt64  `json:"bathroomCount"`
	Notes         sql.NullString `json:"notes"`
	CreatedBy     sql.NullString `json:"createdBy"`
}

type MonthlyReport struct {
	ReportId sql.NullString `json:"reportId"`
	ChildId  sql.NullString `json:"childId"`
	Month    sql.NullString `json:"month"` // YYYY-MM
	Summary  sql.NullString `json:"summary"`
	Notes    sql.NullString `json:"notes"`
}

func (s *Store) AddDailyReport(tx *gorm.DB, report DailyReport) (DailyReport, error) {
	db := s.dbOrTx(tx)

	report.ReportId = DbNullString(s.StringGenerator.GenerateUuid())

	err := db.Exec(`INSERT INTO daily_reports (report_id, child_id, date, type, breakfast, lunch, snack, milk_ml, sleep_minutes, bathroom_count, notes, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ReportId, report.ChildId, report.Date, report.Type,
		report.Breakfast, report.Lunch, report.Snack,
		report.MilkMl, report.SleepMinutes, report.BathroomCount,
		report.Notes, report.CreatedBy).Error
	if err != nil {
		if isUniqueViolation(err) {
			return DailyReport{}, ErrReportAlreadyExists
		}
		return DailyReport{}, err
	}

	return report, nil
}

func (s *Store) GetDailyReport(tx *gorm.DB, reportId string) (DailyReport, error) {
	db := s.dbOrTx(tx)

	report := DailyReport{}
	res := db.Table("daily_reports").
		Select("report_id, child_id, date, type, breakfast, lunch, snack, milk_ml, sleep_minutes, bathroom_count, notes, created_by").
		Where("report_id = ?", reportId).
		Scan(&report)
	if res.RecordNotFound() {
		return DailyReport{}, ErrReportNotFound
	}
	if err := res.Error; err != nil {
		return DailyReport{}, err
	}
	return report, nil
}

type ReportSearchOptions struct {
	ParentId string
	ChildId  string
	From     string
	To       string
}

func (s *Store) ListDailyReports(tx *gorm.DB, options ReportSearchOptions) ([]DailyReport, error) {
	db := s.dbOrTx(tx)

	query := db.Table("daily_reports").
		Select("daily_reports.report_id, daily_reports.child_id, daily_reports.date, daily_reports.type, daily_reports.breakfast, daily_reports.lunch, daily_reports.snack, daily_reports.milk_ml, daily_reports.sleep_minutes, daily_reports.bathroom_count, daily_reports.notes, daily_reports.created_by")
	query = s.scopeReportQuery(query, options)
	query = query.Order("daily_reports.date desc")

	reports := []DailyReport{}
	if err := query.Scan(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) AddMonthlyReport(tx *gorm.DB, report MonthlyReport) (MonthlyReport, error) {
	db := s.dbOrTx(tx)

	report.ReportId = DbNullString(s.StringGenerator.GenerateUuid())

	err := db.Exec(`INSERT INTO monthly_reports (report_id, child_id, month, summary, notes) VALUES (?, ?, ?, ?, ?)`,
		report.ReportId, report.ChildId, report.Month, report.Summary, report.Notes).Error
	if err != nil {
		if isUniqueViolation(err) {
			return MonthlyReport{}, ErrReportAlreadyExists
		}
		return MonthlyReport{}, err
	}

	return report, nil
}

func (s *Store) GetMonthlyReport(tx *gorm.DB, reportId string) (MonthlyReport, error) {
	db := s.dbOrTx(tx)

	report := MonthlyReport{}
	res := db.Table("monthly_reports").
		Select("report_id, child_id, month, summary, notes").
		Where("report_id = ?", reportId).
		Scan(&report)
	if res.RecordNotFound() {
		return MonthlyReport{}, ErrReportNotFound
	}
	if err := res.Error; err != nil {
		return MonthlyReport{}, err
	}
	return report, nil
}

func (s *Store) ListMonthlyReports(tx *gorm.DB, options ReportSearchOptions) ([]MonthlyReport, error) {
	db := s.dbOrTx(tx)

	query := db.Table("monthly_reports").
		Select("monthly_reports.report_id, monthly_reports.child_id, monthly_reports.month, monthly_reports.summary, monthly_reports.notes")
	query = s.scopeMonthlyReportQuery(query, options)
	query = query.Order("monthly_reports.month desc")

	reports := []MonthlyReport{}
	if err := query.Scan(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

// scopeReportQuery applies the ownership query filter through the report's
// child, so a parent only ever lists reports of children they own.
func (s *Store) scopeReportQuery(query *gorm.DB, options ReportSearchOptions) *gorm.DB {
	if options.ParentId != "" {
		query = query.Joins("join children ON children.child_id = daily_reports.child_id")
		query = ownedBy(query, options.ParentId)
	}
	if options.ChildId != "" {
		query = query.Where("daily_reports.child_id = ?", options.ChildId)
	}
	if options.From != "" {
		query = query.Where("daily_reports.date >= ?", options.From)
	}
	if options.To != "" {
		query = query.Where("daily_reports.date <= ?", options.To)
	}
	return query
}

func (s *Store) scopeMonthlyReportQuery(query *gorm.DB, options ReportSearchOptions) *gorm.DB {
	if options.ParentId != "" {
		query = query.Joins("join children ON children.child_id = monthly_reports.child_id")
		query = ownedBy(query, options.ParentId)
	}
	if options.ChildId != "" {
		query = query.Where("monthly_reports.child_id = ?", options.ChildId)
	}
	if options.From != "" {
		query = query.Where("monthly_reports.month >= ?", options.From)
	}
	if options.To != "" {
		query = query.Where("monthly_reports.month <= ?", options.To)
	}
	return query
}

type ReportCounts struct {
	Daily   int64 `json:"daily"`
	Monthly int64 `json:"monthly"`
}

func (s *Store) CountReportsOfChildren(tx *gorm.DB, childIds []string) (ReportCounts, error) {
	db := s.dbOrTx(tx)
	counts := ReportCounts{}

	if err := db.Table("daily_reports").Where("child_id = ANY(?)", pq.Array(childIds)).Count(&counts.Daily).Error; err != nil {
		return ReportCounts{}, err
	}
	if err := db.Table("monthly_reports").Where("child_id = ANY(?)", pq.Array(childIds)).Count(&counts.Monthly).Error; err != nil {
		return ReportCounts{}, err
	}
	return counts, nil
}

func (s *Store) DeleteReportsOfChildren(tx *gorm.DB, childIds []string) (ReportCounts, error) {
	db := s.dbOrTx(tx)
	counts := ReportCounts{}

	res := db.Exec(`DELETE FROM daily_reports WHERE child_id = ANY(?)`, pq.Array(childIds))
	if err := res.Error; err != nil {
		return ReportCounts{}, err
	}
	counts.Daily = res.RowsAffected

	res = db.Exec(`DELETE FROM monthly_reports WHERE child_id = ANY(?)`, pq.Array(childIds))
	if err := res.Error; err != nil {
		return ReportCounts{}, err
	}
	counts.Monthly = res.RowsAffected

	return counts, nil
}
