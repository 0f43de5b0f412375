package access

import (
	"context"

	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrForbidden       = errors.New("you are not allowed to access this child")
	ErrNoAuthenticated = errors.New("no authenticated user in request context")
)

// Guard gates every child-scoped resource. Admins pass unconditionally;
// parents pass iff the ownership predicate holds for the target child. Report
// access is never checked on its own: a report id is first resolved to its
// owning child and the same predicate applied.
type Guard struct {
	Store interface {
		GetChild(tx *gorm.DB, childId string, options store.SearchOptions) (store.Child, error)
		GetDailyReport(tx *gorm.DB, reportId string) (store.DailyReport, error)
		GetMonthlyReport(tx *gorm.DB, reportId string) (store.MonthlyReport, error)
	} `inject:""`
}

// CheckChild returns the child when the caller may access it.
func (g *Guard) CheckChild(ctx context.Context, childId string) (store.Child, error) {
	child, err := g.Store.GetChild(nil, childId, store.SearchOptions{})
	if err != nil {
		return store.Child{}, err
	}
	if err := g.allows(ctx, child); err != nil {
		return store.Child{}, err
	}
	return child, nil
}

// CheckDailyReport resolves the report to its owning child before applying
// the ownership predicate.
func (g *Guard) CheckDailyReport(ctx context.Context, reportId string) (store.DailyReport, error) {
	report, err := g.Store.GetDailyReport(nil, reportId)
	if err != nil {
		return store.DailyReport{}, err
	}
	if _, err := g.CheckChild(ctx, report.ChildId.String); err != nil {
		return store.DailyReport{}, err
	}
	return report, nil
}

func (g *Guard) CheckMonthlyReport(ctx context.Context, reportId string) (store.MonthlyReport, error) {
	report, err := g.Store.GetMonthlyReport(nil, reportId)
	if err != nil {
		return store.MonthlyReport{}, err
	}
	if _, err := g.CheckChild(ctx, report.ChildId.String); err != nil {
		return store.MonthlyReport{}, err
	}
	return report, nil
}

func (g *Guard) allows(ctx context.Context, child store.Child) error {
	if shared.HasRole(ctx, store.ROLE_ADMIN) {
		return nil
	}

	userId := shared.GetUserId(ctx)
	if userId == "" {
		return ErrNoAuthenticated
	}
	if shared.HasRole(ctx, store.ROLE_PARENT) && child.IsOwnedBy(userId) {
		return nil
	}
	return ErrForbidden
}
