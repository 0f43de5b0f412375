package items

import (
	"context"

	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoChild = errors.New("childId is mandatory")
)

type Service interface {
	AddNotice(ctx context.Context, request NoticeTransport) (store.RequiredItemsNotice, error)
	GetLatest(ctx context.Context, childId string) (store.RequiredItemsNotice, error)
}

type ItemsService struct {
	Store interface {
		AddRequiredItemsNotice(tx *gorm.DB, notice store.RequiredItemsNotice) (store.RequiredItemsNotice, error)
		GetLatestRequiredItemsNotice(tx *gorm.DB, childId string) (store.RequiredItemsNotice, error)
	} `inject:""`
	Guard interface {
		CheckChild(ctx context.Context, childId string) (store.Child, error)
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

// AddNotice publishes a new required-items notice for the child. Notices are
// never edited in place; a newer notice supersedes the previous one.
func (s *ItemsService) AddNotice(ctx context.Context, request NoticeTransport) (store.RequiredItemsNotice, error) {
	if request.ChildId == "" {
		return store.RequiredItemsNotice{}, ErrNoChild
	}

	if _, err := s.Guard.CheckChild(ctx, request.ChildId); err != nil {
		return store.RequiredItemsNotice{}, err
	}

	notice, err := s.Store.AddRequiredItemsNotice(nil, store.RequiredItemsNotice{
		ChildId:   store.DbNullString(request.ChildId),
		Diapers:   request.Diapers,
		WetWipes:  request.WetWipes,
		Clothing:  request.Clothing,
		Other:     store.DbNullString(request.Other),
		CreatedBy: store.DbNullString(shared.GetUserId(ctx)),
	})
	if err != nil {
		return store.RequiredItemsNotice{}, errors.Wrap(err, "failed to add required items notice")
	}
	return notice, nil
}

// GetLatest returns the current notice of the child. The guard resolves the
// child first, so a parent only ever sees notices of their own children.
func (s *ItemsService) GetLatest(ctx context.Context, childId string) (store.RequiredItemsNotice, error) {
	if _, err := s.Guard.CheckChild(ctx, childId); err != nil {
		return store.RequiredItemsNotice{}, err
	}

	notice, err := s.Store.GetLatestRequiredItemsNotice(nil, childId)
	if err != nil {
		if errors.Cause(err) == store.ErrNoticeNotFound {
			return store.RequiredItemsNotice{}, store.ErrNoticeNotFound
		}
		return store.RequiredItemsNotice{}, errors.Wrap(err, "failed to get required items notice")
	}
	return notice, nil
}

// ServiceMiddleware is a chainable behavior modifier for ItemsService.
type ServiceMiddleware func(ItemsService) ItemsService
