package access_test

import (
	"context"

	. "github.com/Kanir1/KindergartenApp/access"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"
	"github.com/Kanir1/KindergartenApp/store/mocks"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("Guard", func() {

	var (
		guard         *Guard
		mockStore     *mocks.MockStore
		returnedError error

		adminCtx  = shared.ContextWithClaims(context.Background(), "a1", []string{store.ROLE_ADMIN})
		ownerCtx  = shared.ContextWithClaims(context.Background(), "p1", []string{store.ROLE_PARENT})
		otherCtx  = shared.ContextWithClaims(context.Background(), "p2", []string{store.ROLE_PARENT})
		anonymous = context.Background()

		ownedChild = store.Child{
			ChildId:  store.DbNullString("c1"),
			OwnerSet: store.OwnerSet{"p1"},
		}
	)

	BeforeEach(func() {
		mockStore = &mocks.MockStore{}
		guard = &Guard{Store: mockStore}
	})

	var assertErrorWithCause = func(cause error) {
		It("should return an error with the expected cause", func() {
			Expect(returnedError).NotTo(BeNil())
			Expect(errors.Cause(returnedError)).To(Equal(cause))
		})
	}

	Context("CheckChild", func() {

		Context("as an admin", func() {
			var child store.Child

			BeforeEach(func() {
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				child, returnedError = guard.CheckChild(adminCtx, "c1")
			})

			It("should pass regardless of ownership", func() {
				Expect(returnedError).To(BeNil())
				Expect(child.ChildId.String).To(Equal("c1"))
			})
		})

		Context("as the owning parent", func() {
			BeforeEach(func() {
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckChild(ownerCtx, "c1")
			})

			It("should pass", func() {
				Expect(returnedError).To(BeNil())
			})
		})

		Context("as a parent owning through a legacy column only", func() {
			BeforeEach(func() {
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(store.Child{
					ChildId:       store.DbNullString("c1"),
					LegacyParentB: store.DbNullString("p1"),
				}, nil)
				_, returnedError = guard.CheckChild(ownerCtx, "c1")
			})

			It("should pass", func() {
				Expect(returnedError).To(BeNil())
			})
		})

		Context("as another parent", func() {
			BeforeEach(func() {
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckChild(otherCtx, "c1")
			})

			assertErrorWithCause(ErrForbidden)
		})

		Context("without an authenticated user", func() {
			BeforeEach(func() {
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckChild(anonymous, "c1")
			})

			assertErrorWithCause(ErrNoAuthenticated)
		})

		Context("when the child does not exist", func() {
			BeforeEach(func() {
				mockStore.On("GetChild", "nope", store.SearchOptions{}).Return(store.Child{}, store.ErrChildNotFound)
				_, returnedError = guard.CheckChild(adminCtx, "nope")
			})

			assertErrorWithCause(store.ErrChildNotFound)
		})
	})

	Context("CheckDailyReport", func() {

		Context("when the report's child is owned by the caller", func() {
			var report store.DailyReport

			BeforeEach(func() {
				mockStore.On("GetDailyReport", "r1").Return(store.DailyReport{
					ReportId: store.DbNullString("r1"),
					ChildId:  store.DbNullString("c1"),
				}, nil)
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				report, returnedError = guard.CheckDailyReport(ownerCtx, "r1")
			})

			It("should resolve the report to its child and pass", func() {
				Expect(returnedError).To(BeNil())
				Expect(report.ReportId.String).To(Equal("r1"))
			})
		})

		Context("when the report's child belongs to somebody else", func() {
			BeforeEach(func() {
				mockStore.On("GetDailyReport", "r1").Return(store.DailyReport{
					ReportId: store.DbNullString("r1"),
					ChildId:  store.DbNullString("c1"),
				}, nil)
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckDailyReport(otherCtx, "r1")
			})

			assertErrorWithCause(ErrForbidden)
		})

		Context("when the report does not exist", func() {
			BeforeEach(func() {
				mockStore.On("GetDailyReport", "nope").Return(store.DailyReport{}, store.ErrReportNotFound)
				_, returnedError = guard.CheckDailyReport(adminCtx, "nope")
			})

			assertErrorWithCause(store.ErrReportNotFound)
		})
	})

	Context("CheckMonthlyReport", func() {

		Context("when the report's child belongs to somebody else", func() {
			BeforeEach(func() {
				mockStore.On("GetMonthlyReport", "m1").Return(store.MonthlyReport{
					ReportId: store.DbNullString("m1"),
					ChildId:  store.DbNullString("c1"),
				}, nil)
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckMonthlyReport(otherCtx, "m1")
			})

			assertErrorWithCause(ErrForbidden)
		})

		Context("as an admin", func() {
			BeforeEach(func() {
				mockStore.On("GetMonthlyReport", "m1").Return(store.MonthlyReport{
					ReportId: store.DbNullString("m1"),
					ChildId:  store.DbNullString("c1"),
				}, nil)
				mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(ownedChild, nil)
				_, returnedError = guard.CheckMonthlyReport(adminCtx, "m1")
			})

			It("should pass", func() {
				Expect(returnedError).To(BeNil())
			})
		})
	})
})
