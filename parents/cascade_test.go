package parents_test

import (
	"context"

	. "github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	storagemocks "github.com/Kanir1/KindergartenApp/storage/mocks"
	"github.com/Kanir1/KindergartenApp/store"
	"github.com/Kanir1/KindergartenApp/store/mocks"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("ValidateCascadePolicy", func() {

	It("should accept the three policies", func() {
		Expect(ValidateCascadePolicy(CascadeHard)).To(BeNil())
		Expect(ValidateCascadePolicy(CascadeOrphans)).To(BeNil())
		Expect(ValidateCascadePolicy(CascadePreserve)).To(BeNil())
	})

	It("should reject anything else", func() {
		Expect(ValidateCascadePolicy("drop-everything")).To(Equal(ErrUnknownCascadePolicy))
		Expect(ValidateCascadePolicy("")).To(Equal(ErrUnknownCascadePolicy))
	})
})

var _ = Describe("DeleteParent", func() {

	var (
		ctx           = context.Background()
		service       *ParentService
		mockStore     *mocks.MockStore
		mockStorage   *storagemocks.MockStorage
		config        *shared.AppConfig
		result        CascadeResult
		returnedError error

		parentUser = store.User{
			UserId: store.DbNullString("p1"),
			Roles:  store.Roles{{UserId: "p1", Role: store.ROLE_PARENT}},
		}
	)

	BeforeEach(func() {
		mockStore = &mocks.MockStore{}
		mockStorage = &storagemocks.MockStorage{}
		config = &shared.AppConfig{CascadePolicy: CascadePreserve}
		service = &ParentService{
			Store:   mockStore,
			Storage: mockStorage,
			Config:  config,
			Logger:  shared.NewLogger("test"),
		}
	})

	var assertErrorWithCause = func(cause error) {
		It("should return an error with the expected cause", func() {
			Expect(returnedError).NotTo(BeNil())
			Expect(errors.Cause(returnedError)).To(Equal(cause))
		})
	}

	Context("with an unknown policy configured", func() {
		BeforeEach(func() {
			config.CascadePolicy = "whatever"
			_, returnedError = service.DeleteParent(ctx, "p1")
		})

		assertErrorWithCause(ErrUnknownCascadePolicy)
	})

	Context("when the user does not exist", func() {
		BeforeEach(func() {
			mockStore.On("GetUser", "nope").Return(store.User{}, store.ErrUserNotFound)
			_, returnedError = service.DeleteParent(ctx, "nope")
		})

		assertErrorWithCause(store.ErrUserNotFound)
	})

	Context("when the user is not a parent", func() {
		BeforeEach(func() {
			mockStore.On("GetUser", "a1").Return(store.User{
				UserId: store.DbNullString("a1"),
				Roles:  store.Roles{{UserId: "a1", Role: store.ROLE_ADMIN}},
			}, nil)
			_, returnedError = service.DeleteParent(ctx, "a1")
		})

		assertErrorWithCause(ErrNotParent)
	})

	Context("with the hard policy", func() {
		BeforeEach(func() {
			config.CascadePolicy = CascadeHard

			mockStore.On("GetUser", "p1").Return(parentUser, nil)
			mockStore.On("Transact").Return(nil)
			// c1 is solely owned, c2 is co-owned with another parent.
			mockStore.On("ListChildren", store.SearchOptions{ParentId: "p1"}).Return([]store.Child{
				{ChildId: store.DbNullString("c1"), OwnerSet: store.OwnerSet{"p1"}},
				{ChildId: store.DbNullString("c2"), OwnerSet: store.OwnerSet{"p1", "p2"}},
			}, nil)
			mockStore.On("FindSolelyOwnedChildIds", "p1").Return([]string{"c1"}, nil)
			mockStore.On("RemoveParentFromChildren", "p1", []string{"c2"}).
				Return(store.LinkReport{Matched: 1, Modified: 1}, nil)
			mockStore.On("DeleteReportsOfChildren", []string{"c1"}).
				Return(store.ReportCounts{Daily: 3, Monthly: 1}, nil)
			mockStore.On("ListPickupsOfChildren", []string{"c1"}).Return([]store.AuthorizedPickup{
				{PickupId: store.DbNullString("pk1"), PhotoPath: store.DbNullString("photos/pk1.jpg")},
			}, nil)
			mockStore.On("DeletePickupsOfChildren", []string{"c1"}).Return(nil)
			mockStore.On("DeleteRequiredItemsOfChildren", []string{"c1"}).Return(nil)
			mockStore.On("DeleteChildren", []string{"c1"}).Return(int64(1), nil)
			mockStore.On("DeleteUser", "p1").Return(nil)
			mockStorage.On("Delete", "photos/pk1.jpg").Return(nil)

			result, returnedError = service.DeleteParent(ctx, "p1")
		})

		It("should not return an error", func() {
			Expect(returnedError).To(BeNil())
		})

		It("should delete solely owned children with their reports and pickups", func() {
			Expect(result.Policy).To(Equal(CascadeHard))
			Expect(result.ChildrenDeleted).To(Equal(int64(1)))
			Expect(result.DailyReportsDeleted).To(Equal(int64(3)))
			Expect(result.MonthlyReportsDeleted).To(Equal(int64(1)))
			Expect(result.UsersDeleted).To(Equal(1))
		})

		It("should only unlink co-owned children", func() {
			mockStore.AssertCalled(GinkgoT(), "RemoveParentFromChildren", "p1", []string{"c2"})
		})

		It("should remove the pickup photo after the transaction", func() {
			mockStorage.AssertCalled(GinkgoT(), "Delete", "photos/pk1.jpg")
		})
	})

	Context("with the orphans policy", func() {
		BeforeEach(func() {
			config.CascadePolicy = CascadeOrphans

			mockStore.On("GetUser", "p1").Return(parentUser, nil)
			mockStore.On("Transact").Return(nil)
			mockStore.On("ListChildren", store.SearchOptions{ParentId: "p1"}).Return([]store.Child{
				{ChildId: store.DbNullString("c1"), OwnerSet: store.OwnerSet{"p1"}},
				{ChildId: store.DbNullString("c2"), OwnerSet: store.OwnerSet{"p1"}, LegacyParentA: store.DbNullString("p2")},
			}, nil)
			mockStore.On("UnlinkParentEverywhere", "p1").Return(nil)
			// After unlinking, only c1 is left without any owner.
			mockStore.On("FindOrphanChildIds", []string{"c1", "c2"}).Return([]string{"c1"}, nil)
			mockStore.On("DeleteReportsOfChildren", []string{"c1"}).Return(store.ReportCounts{}, nil)
			mockStore.On("ListPickupsOfChildren", []string{"c1"}).Return([]store.AuthorizedPickup{}, nil)
			mockStore.On("DeletePickupsOfChildren", []string{"c1"}).Return(nil)
			mockStore.On("DeleteRequiredItemsOfChildren", []string{"c1"}).Return(nil)
			mockStore.On("DeleteChildren", []string{"c1"}).Return(int64(1), nil)
			mockStore.On("DeleteUser", "p1").Return(nil)

			result, returnedError = service.DeleteParent(ctx, "p1")
		})

		It("should not return an error", func() {
			Expect(returnedError).To(BeNil())
		})

		It("should unlink everywhere before looking for orphans", func() {
			mockStore.AssertCalled(GinkgoT(), "UnlinkParentEverywhere", "p1")
			Expect(result.ChildrenDeleted).To(Equal(int64(1)))
		})

		It("should keep children that still have an owner", func() {
			mockStore.AssertNotCalled(GinkgoT(), "DeleteChildren", []string{"c2"})
		})
	})

	Context("with the preserve policy", func() {
		BeforeEach(func() {
			config.CascadePolicy = CascadePreserve

			mockStore.On("GetUser", "p1").Return(parentUser, nil)
			mockStore.On("Transact").Return(nil)
			mockStore.On("ListChildren", store.SearchOptions{ParentId: "p1"}).Return([]store.Child{
				{ChildId: store.DbNullString("c1")},
				{ChildId: store.DbNullString("c2")},
			}, nil)
			mockStore.On("UnlinkParentEverywhere", "p1").Return(nil)
			// c1 keeps two owners, c2 is left with none.
			mockStore.On("GetChild", "c1", store.SearchOptions{}).Return(store.Child{
				ChildId:  store.DbNullString("c1"),
				OwnerSet: store.OwnerSet{"p3", "p2"},
			}, nil)
			mockStore.On("GetChild", "c2", store.SearchOptions{}).Return(store.Child{
				ChildId: store.DbNullString("c2"),
			}, nil)
			mockStore.On("SetLegacyParents", "c1", "p2").Return(nil)
			mockStore.On("DeleteUser", "p1").Return(nil)

			result, returnedError = service.DeleteParent(ctx, "p1")
		})

		It("should not return an error", func() {
			Expect(returnedError).To(BeNil())
		})

		It("should backfill the lowest remaining owner id", func() {
			mockStore.AssertCalled(GinkgoT(), "SetLegacyParents", "c1", "p2")
			Expect(result.ChildrenPreserved).To(Equal(1))
		})

		It("should never delete children or reports", func() {
			Expect(result.ChildrenDeleted).To(Equal(int64(0)))
			mockStore.AssertNotCalled(GinkgoT(), "DeleteChildren", mock.Anything)
			mockStore.AssertNotCalled(GinkgoT(), "DeleteReportsOfChildren", mock.Anything)
		})
	})

	Context("when a step inside the transaction fails", func() {
		var boom = errors.New("connection reset")

		BeforeEach(func() {
			config.CascadePolicy = CascadeHard

			mockStore.On("GetUser", "p1").Return(parentUser, nil)
			mockStore.On("Transact").Return(nil)
			mockStore.On("ListChildren", store.SearchOptions{ParentId: "p1"}).Return([]store.Child{
				{ChildId: store.DbNullString("c1"), OwnerSet: store.OwnerSet{"p1"}},
			}, nil)
			mockStore.On("FindSolelyOwnedChildIds", "p1").Return([]string{"c1"}, nil)
			mockStore.On("DeleteReportsOfChildren", []string{"c1"}).
				Return(store.ReportCounts{Daily: 2}, nil)
			mockStore.On("ListPickupsOfChildren", []string{"c1"}).Return([]store.AuthorizedPickup{
				{PickupId: store.DbNullString("pk1"), PhotoPath: store.DbNullString("photos/pk1.jpg")},
			}, nil)
			mockStore.On("DeletePickupsOfChildren", []string{"c1"}).Return(boom)

			_, returnedError = service.DeleteParent(ctx, "p1")
		})

		assertErrorWithCause(boom)

		It("should not delete any photo file", func() {
			mockStorage.AssertNotCalled(GinkgoT(), "Delete", mock.Anything)
		})
	})
})
