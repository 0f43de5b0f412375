package mocks

import (
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

// Transact runs fn against a nil transaction so services can be exercised
// without a database. Record an error to simulate a failed transaction.
func (s *MockStore) Transact(fn func(tx *gorm.DB) error) error {
	args := s.Called()
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(nil)
}

func (s *MockStore) AddUser(tx *gorm.DB, user store.User) (store.User, error) {
	args := s.Called(user)
	return args.Get(0).(store.User), args.Error(1)
}

func (s *MockStore) GetUser(tx *gorm.DB, userId string) (store.User, error) {
	args := s.Called(userId)
	return args.Get(0).(store.User), args.Error(1)
}

func (s *MockStore) GetUserByEmail(tx *gorm.DB, email string) (store.User, error) {
	args := s.Called(email)
	return args.Get(0).(store.User), args.Error(1)
}

func (s *MockStore) CheckUserCredentials(tx *gorm.DB, email, password string) (store.User, error) {
	args := s.Called(email, password)
	return args.Get(0).(store.User), args.Error(1)
}

func (s *MockStore) ListUsersByRole(tx *gorm.DB, role string) ([]store.User, error) {
	args := s.Called(role)
	return args.Get(0).([]store.User), args.Error(1)
}

func (s *MockStore) DeleteUser(tx *gorm.DB, userId string) error {
	args := s.Called(userId)
	return args.Error(0)
}

func (s *MockStore) AddRole(tx *gorm.DB, role store.Role) (store.Role, error) {
	args := s.Called(role)
	return args.Get(0).(store.Role), args.Error(1)
}

func (s *MockStore) AddChild(tx *gorm.DB, child store.Child) (store.Child, error) {
	args := s.Called(child)
	return args.Get(0).(store.Child), args.Error(1)
}

func (s *MockStore) GetChild(tx *gorm.DB, childId string, options store.SearchOptions) (store.Child, error) {
	args := s.Called(childId, options)
	return args.Get(0).(store.Child), args.Error(1)
}

func (s *MockStore) ListChildren(tx *gorm.DB, options store.SearchOptions) ([]store.Child, error) {
	args := s.Called(options)
	return args.Get(0).([]store.Child), args.Error(1)
}

func (s *MockStore) UpdateChildNotes(tx *gorm.DB, childId, medicalCondition, specialNotes string) (store.Child, error) {
	args := s.Called(childId, medicalCondition, specialNotes)
	return args.Get(0).(store.Child), args.Error(1)
}

func (s *MockStore) DeleteChildren(tx *gorm.DB, childIds []string) (int64, error) {
	args := s.Called(childIds)
	return args.Get(0).(int64), args.Error(1)
}

func (s *MockStore) AddParentToChildren(tx *gorm.DB, parentId string, childIds []string) (store.LinkReport, error) {
	args := s.Called(parentId, childIds)
	return args.Get(0).(store.LinkReport), args.Error(1)
}

func (s *MockStore) RemoveParentFromChildren(tx *gorm.DB, parentId string, childIds []string) (store.LinkReport, error) {
	args := s.Called(parentId, childIds)
	return args.Get(0).(store.LinkReport), args.Error(1)
}

func (s *MockStore) LinkOrCreateChild(tx *gorm.DB, parentId string, child store.Child) (store.Child, bool, error) {
	args := s.Called(parentId, child)
	return args.Get(0).(store.Child), args.Bool(1), args.Error(2)
}

func (s *MockStore) UnlinkParentEverywhere(tx *gorm.DB, parentId string) error {
	args := s.Called(parentId)
	return args.Error(0)
}

func (s *MockStore) SetLegacyParents(tx *gorm.DB, childId, parentId string) error {
	args := s.Called(childId, parentId)
	return args.Error(0)
}

func (s *MockStore) FindSolelyOwnedChildIds(tx *gorm.DB, parentId string) ([]string, error) {
	args := s.Called(parentId)
	return args.Get(0).([]string), args.Error(1)
}

func (s *MockStore) FindOrphanChildIds(tx *gorm.DB, candidateIds []string) ([]string, error) {
	args := s.Called(candidateIds)
	return args.Get(0).([]string), args.Error(1)
}

func (s *MockStore) AddDailyReport(tx *gorm.DB, report store.DailyReport) (store.DailyReport, error) {
	args := s.Called(report)
	return args.Get(0).(store.DailyReport), args.Error(1)
}

func (s *MockStore) GetDailyReport(tx *gorm.DB, reportId string) (store.DailyReport, error) {
	args := s.Called(reportId)
	return args.Get(0).(store.DailyReport), args.Error(1)
}

func (s *MockStore) ListDailyReports(tx *gorm.DB, options store.ReportSearchOptions) ([]store.DailyReport, error) {
	args := s.Called(options)
	return args.Get(0).([]store.DailyReport), args.Error(1)
}

func (s *MockStore) AddMonthlyReport(tx *gorm.DB, report store.MonthlyReport) (store.MonthlyReport, error) {
	args := s.Called(report)
	return args.Get(0).(store.MonthlyReport), args.Error(1)
}

func (s *MockStore) GetMonthlyReport(tx *gorm.DB, reportId string) (store.MonthlyReport, error) {
	args := s.Called(reportId)
	return args.Get(0).(store.MonthlyReport), args.Error(1)
}

func (s *MockStore) ListMonthlyReports(tx *gorm.DB, options store.ReportSearchOptions) ([]store.MonthlyReport, error) {
	args := s.Called(options)
	return args.Get(0).([]store.MonthlyReport), args.Error(1)
}

func (s *MockStore) CountReportsOfChildren(tx *gorm.DB, childIds []string) (store.ReportCounts, error) {
	args := s.Called(childIds)
	return args.Get(0).(store.ReportCounts), args.Error(1)
}

func (s *MockStore) DeleteReportsOfChildren(tx *gorm.DB, childIds []string) (store.ReportCounts, error) {
	args := s.Called(childIds)
	return args.Get(0).(store.ReportCounts), args.Error(1)
}

func (s *MockStore) AddPickup(tx *gorm.DB, pickup store.AuthorizedPickup) (store.AuthorizedPickup, error) {
	args := s.Called(pickup)
	return args.Get(0).(store.AuthorizedPickup), args.Error(1)
}

func (s *MockStore) ListPickupsOfChildren(tx *gorm.DB, childIds []string) ([]store.AuthorizedPickup, error) {
	args := s.Called(childIds)
	return args.Get(0).([]store.AuthorizedPickup), args.Error(1)
}

func (s *MockStore) DeletePickup(tx *gorm.DB, childId, pickupId string) (store.AuthorizedPickup, error) {
	args := s.Called(childId, pickupId)
	return args.Get(0).(store.AuthorizedPickup), args.Error(1)
}

func (s *MockStore) DeletePickupsOfChildren(tx *gorm.DB, childIds []string) error {
	args := s.Called(childIds)
	return args.Error(0)
}

func (s *MockStore) AddRequiredItemsNotice(tx *gorm.DB, notice store.RequiredItemsNotice) (store.RequiredItemsNotice, error) {
	args := s.Called(notice)
	return args.Get(0).(store.RequiredItemsNotice), args.Error(1)
}

func (s *MockStore) GetLatestRequiredItemsNotice(tx *gorm.DB, childId string) (store.RequiredItemsNotice, error) {
	args := s.Called(childId)
	return args.Get(0).(store.RequiredItemsNotice), args.Error(1)
}

func (s *MockStore) DeleteRequiredItemsOfChildren(tx *gorm.DB, childIds []string) error {
	args := s.Called(childIds)
	return args.Error(0)
}
