package parents

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoChildIds        = errors.New("childIds must be a non-empty array")
	ErrNotParent         = errors.New("target user is not a parent")
	ErrInvalidExternalId = errors.New("externalId must contain only letters, digits and hyphens")
	ErrInvalidBirthDate  = errors.New("birthDate could not be parsed")
)

// External ids are human-typed codes like "A12-345". They are normalized to
// uppercase before any storage operation so casing never creates duplicates.
var externalIdFormat = regexp.MustCompile(`^[A-Z0-9-]+$`)

func NormalizeExternalId(raw string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if !externalIdFormat.MatchString(normalized) {
		return "", ErrInvalidExternalId
	}
	return normalized, nil
}

type Service interface {
	Link(ctx context.Context, parentId string, childIds []string) (store.LinkReport, error)
	Unlink(ctx context.Context, parentId string, childIds []string) (store.LinkReport, error)
	SelfServeLinkOrCreate(ctx context.Context, userId string, request LinkChildTransport) (store.Child, bool, error)
	DeleteParent(ctx context.Context, parentId string) (CascadeResult, error)
	ListParents(ctx context.Context) ([]ParentSummary, error)
}

type ParentService struct {
	Store interface {
		Transact(fn func(tx *gorm.DB) error) error
		GetUser(tx *gorm.DB, userId string) (store.User, error)
		DeleteUser(tx *gorm.DB, userId string) error
		ListUsersByRole(tx *gorm.DB, role string) ([]store.User, error)
		GetChild(tx *gorm.DB, childId string, options store.SearchOptions) (store.Child, error)
		ListChildren(tx *gorm.DB, options store.SearchOptions) ([]store.Child, error)
		AddParentToChildren(tx *gorm.DB, parentId string, childIds []string) (store.LinkReport, error)
		RemoveParentFromChildren(tx *gorm.DB, parentId string, childIds []string) (store.LinkReport, error)
		LinkOrCreateChild(tx *gorm.DB, parentId string, child store.Child) (store.Child, bool, error)
		UnlinkParentEverywhere(tx *gorm.DB, parentId string) error
		SetLegacyParents(tx *gorm.DB, childId, parentId string) error
		FindSolelyOwnedChildIds(tx *gorm.DB, parentId string) ([]string, error)
		FindOrphanChildIds(tx *gorm.DB, candidateIds []string) ([]string, error)
		DeleteChildren(tx *gorm.DB, childIds []string) (int64, error)
		DeleteReportsOfChildren(tx *gorm.DB, childIds []string) (store.ReportCounts, error)
		CountReportsOfChildren(tx *gorm.DB, childIds []string) (store.ReportCounts, error)
		ListPickupsOfChildren(tx *gorm.DB, childIds []string) ([]store.AuthorizedPickup, error)
		DeletePickupsOfChildren(tx *gorm.DB, childIds []string) error
		DeleteRequiredItemsOfChildren(tx *gorm.DB, childIds []string) error
	} `inject:""`
	Storage interface {
		Delete(ctx context.Context, filePath string) error
	} `inject:""`
	StringGenerator interface {
		GenerateRandomName() string
	} `inject:""`
	Config *shared.AppConfig `inject:""`
	Logger *shared.Logger    `inject:""`
}

// Link adds parentId to the owner set of every child in childIds. Relinking
// an already linked child is a no-op: the report distinguishes matched from
// actually modified records.
func (s *ParentService) Link(ctx context.Context, parentId string, childIds []string) (store.LinkReport, error) {
	if len(childIds) == 0 {
		return store.LinkReport{}, ErrNoChildIds
	}
	if err := s.checkIsParent(parentId); err != nil {
		return store.LinkReport{}, err
	}

	report := store.LinkReport{}
	err := s.Store.Transact(func(tx *gorm.DB) error {
		var err error
		report, err = s.Store.AddParentToChildren(tx, parentId, childIds)
		return err
	})
	if err != nil {
		return store.LinkReport{}, errors.Wrap(err, "failed to link children")
	}
	return report, nil
}

// Unlink removes ownership only. The child records themselves are never
// deleted here; that is the cascade's decision.
func (s *ParentService) Unlink(ctx context.Context, parentId string, childIds []string) (store.LinkReport, error) {
	if len(childIds) == 0 {
		return store.LinkReport{}, ErrNoChildIds
	}
	if err := s.checkIsParent(parentId); err != nil {
		return store.LinkReport{}, err
	}

	report := store.LinkReport{}
	err := s.Store.Transact(func(tx *gorm.DB) error {
		var err error
		report, err = s.Store.RemoveParentFromChildren(tx, parentId, childIds)
		return err
	})
	if err != nil {
		return store.LinkReport{}, errors.Wrap(err, "failed to unlink children")
	}
	return report, nil
}

// SelfServeLinkOrCreate attaches userId to the child identified by the given
// external id, creating the child when no such record exists. Concurrent
// calls with the same new external id are resolved by the storage layer's
// atomic insert: exactly one creates, the others link or get a conflict.
func (s *ParentService) SelfServeLinkOrCreate(ctx context.Context, userId string, request LinkChildTransport) (store.Child, bool, error) {
	externalId, err := NormalizeExternalId(request.ExternalId)
	if err != nil {
		return store.Child{}, false, err
	}

	var birthDate time.Time
	if request.BirthDate != "" {
		birthDate, err = dateparse.ParseIn(request.BirthDate, time.UTC)
		if err != nil {
			return store.Child{}, false, errors.Wrap(ErrInvalidBirthDate, err.Error())
		}
	}

	// A child created without a name hint gets a placeholder name the staff
	// can recognize as auto-generated and fix later.
	name := strings.TrimSpace(request.Name)
	if name == "" {
		name = s.StringGenerator.GenerateRandomName()
	}

	var child store.Child
	var created bool
	err = s.Store.Transact(func(tx *gorm.DB) error {
		var err error
		child, created, err = s.Store.LinkOrCreateChild(tx, userId, store.Child{
			Name:       store.DbNullString(name),
			ExternalId: store.DbNullString(externalId),
			BirthDate:  birthDate,
		})
		return err
	})
	if err != nil {
		if errors.Cause(err) == store.ErrExternalIdTaken {
			return store.Child{}, false, store.ErrExternalIdTaken
		}
		return store.Child{}, false, errors.Wrap(err, "failed to link or create child")
	}

	s.Logger.Info(ctx, "self-serve link resolved", "externalId", externalId, "created", created)
	return child, created, nil
}

type ParentSummary struct {
	Id           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ChildCount   int    `json:"childCount"`
	DailyCount   int64  `json:"dailyCount"`
	MonthlyCount int64  `json:"monthlyCount"`
}

func (s *ParentService) ListParents(ctx context.Context) ([]ParentSummary, error) {
	users, err := s.Store.ListUsersByRole(nil, store.ROLE_PARENT)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list parents")
	}

	summaries := []ParentSummary{}
	for _, user := range users {
		children, err := s.Store.ListChildren(nil, store.SearchOptions{ParentId: user.UserId.String})
		if err != nil {
			return nil, errors.Wrap(err, "failed to list children of parent")
		}
		counts, err := s.Store.CountReportsOfChildren(nil, childIds(children))
		if err != nil {
			return nil, errors.Wrap(err, "failed to count reports of parent")
		}
		summaries = append(summaries, ParentSummary{
			Id:           user.UserId.String,
			Name:         user.Name.String,
			Email:        user.Email.String,
			ChildCount:   len(children),
			DailyCount:   counts.Daily,
			MonthlyCount: counts.Monthly,
		})
	}
	return summaries, nil
}

func (s *ParentService) checkIsParent(parentId string) error {
	user, err := s.Store.GetUser(nil, parentId)
	if err != nil {
		return err
	}
	if !user.Is(store.ROLE_PARENT) {
		return ErrNotParent
	}
	return nil
}

func childIds(children []store.Child) []string {
	ids := make([]string, 0, len(children))
	for _, child := range children {
		ids = append(ids, child.ChildId.String)
	}
	return ids
}

// ServiceMiddleware is a chainable behavior modifier for ParentService.
type ServiceMiddleware func(ParentService) ParentService
