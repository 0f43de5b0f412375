package children

import (
	"context"
	"strings"
	"time"

	"github.com/Kanir1/KindergartenApp/parents"
	"github.com/Kanir1/KindergartenApp/shared"
	"github.com/Kanir1/KindergartenApp/store"

	"github.com/araddon/dateparse"
	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

var (
	ErrNoName        = errors.New("name is mandatory")
	ErrNoBirthDate   = errors.New("birthDate is mandatory")
	ErrNoPickupName  = errors.New("pickup name is mandatory")
	ErrNoPickupPhone = errors.New("pickup phone is mandatory")
	ErrNoPickupPhoto = errors.New("pickup photo is mandatory")
)

type Service interface {
	AddChild(ctx context.Context, request ChildTransport) (store.Child, error)
	GetChild(ctx context.Context, childId string) (store.Child, error)
	ListChildren(ctx context.Context) ([]store.Child, error)
	ListMine(ctx context.Context) ([]store.Child, error)
	UpdateParentNotes(ctx context.Context, request ChildTransport) (store.Child, error)
	DeleteChild(ctx context.Context, childId string) error
	AddPickup(ctx context.Context, request PickupTransport) (store.AuthorizedPickup, error)
	ListPickups(ctx context.Context, childId string) ([]store.AuthorizedPickup, error)
	RemovePickup(ctx context.Context, childId, pickupId string) error
}

type ChildService struct {
	Store interface {
		Transact(fn func(tx *gorm.DB) error) error
		AddChild(tx *gorm.DB, child store.Child) (store.Child, error)
		GetChild(tx *gorm.DB, childId string, options store.SearchOptions) (store.Child, error)
		ListChildren(tx *gorm.DB, options store.SearchOptions) ([]store.Child, error)
		UpdateChildNotes(tx *gorm.DB, childId, medicalCondition, specialNotes string) (store.Child, error)
		DeleteChildren(tx *gorm.DB, childIds []string) (int64, error)
		DeleteReportsOfChildren(tx *gorm.DB, childIds []string) (store.ReportCounts, error)
		AddPickup(tx *gorm.DB, pickup store.AuthorizedPickup) (store.AuthorizedPickup, error)
		ListPickupsOfChildren(tx *gorm.DB, childIds []string) ([]store.AuthorizedPickup, error)
		DeletePickup(tx *gorm.DB, childId, pickupId string) (store.AuthorizedPickup, error)
		DeletePickupsOfChildren(tx *gorm.DB, childIds []string) error
		DeleteRequiredItemsOfChildren(tx *gorm.DB, childIds []string) error
	} `inject:""`
	Guard interface {
		CheckChild(ctx context.Context, childId string) (store.Child, error)
	} `inject:""`
	Storage interface {
		Store(ctx context.Context, encodedImage, mimeType string) (string, error)
		Delete(ctx context.Context, filePath string) error
	} `inject:""`
	Logger *shared.Logger `inject:""`
}

// AddChild creates a child with no owner attached. Linking happens through
// the parents service, administratively or self-serve.
func (c *ChildService) AddChild(ctx context.Context, request ChildTransport) (store.Child, error) {
	if strings.TrimSpace(request.Name) == "" {
		return store.Child{}, ErrNoName
	}
	if request.BirthDate == "" {
		return store.Child{}, ErrNoBirthDate
	}
	t, err := dateparse.ParseIn(request.BirthDate, time.UTC)
	if err != nil {
		return store.Child{}, errors.Wrap(parents.ErrInvalidBirthDate, err.Error())
	}

	child := store.Child{
		Name:      store.DbNullString(strings.TrimSpace(request.Name)),
		BirthDate: t,
	}
	if request.ExternalId != "" {
		externalId, err := parents.NormalizeExternalId(request.ExternalId)
		if err != nil {
			return store.Child{}, err
		}
		child.ExternalId = store.DbNullString(externalId)
	}

	created, err := c.Store.AddChild(nil, child)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to add child")
	}
	return created, nil
}

func (c *ChildService) GetChild(ctx context.Context, childId string) (store.Child, error) {
	child, err := c.Guard.CheckChild(ctx, childId)
	if err != nil {
		return store.Child{}, err
	}
	return child, nil
}

func (c *ChildService) ListChildren(ctx context.Context) ([]store.Child, error) {
	children, err := c.Store.ListChildren(nil, store.SearchOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list children")
	}
	return children, nil
}

// ListMine uses the query-filter form of the ownership predicate: the result
// set is exactly the children the in-process predicate would accept.
func (c *ChildService) ListMine(ctx context.Context) ([]store.Child, error) {
	children, err := c.Store.ListChildren(nil, store.SearchOptions{ParentId: shared.GetUserId(ctx)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list children")
	}
	return children, nil
}

func (c *ChildService) UpdateParentNotes(ctx context.Context, request ChildTransport) (store.Child, error) {
	if _, err := c.Guard.CheckChild(ctx, request.Id); err != nil {
		return store.Child{}, err
	}

	child, err := c.Store.UpdateChildNotes(nil, request.Id, request.MedicalCondition, request.SpecialNotes)
	if err != nil {
		return store.Child{}, errors.Wrap(err, "failed to update parent notes")
	}
	return child, nil
}

// DeleteChild is the explicit administrative delete: the child, its reports,
// pickups and item notices go in one transaction, photo files afterwards.
func (c *ChildService) DeleteChild(ctx context.Context, childId string) error {
	photos := []string{}

	err := c.Store.Transact(func(tx *gorm.DB) error {
		if _, err := c.Store.GetChild(tx, childId, store.SearchOptions{}); err != nil {
			return err
		}
		if _, err := c.Store.DeleteReportsOfChildren(tx, []string{childId}); err != nil {
			return err
		}
		pickups, err := c.Store.ListPickupsOfChildren(tx, []string{childId})
		if err != nil {
			return err
		}
		for _, pickup := range pickups {
			photos = append(photos, pickup.PhotoPath.String)
		}
		if err := c.Store.DeletePickupsOfChildren(tx, []string{childId}); err != nil {
			return err
		}
		if err := c.Store.DeleteRequiredItemsOfChildren(tx, []string{childId}); err != nil {
			return err
		}
		_, err = c.Store.DeleteChildren(tx, []string{childId})
		return err
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete child")
	}

	for _, photo := range photos {
		if err := c.Storage.Delete(ctx, photo); err != nil {
			c.Logger.Warn(ctx, "failed to delete pickup photo", "path", photo, "err", err.Error())
		}
	}
	return nil
}

func (c *ChildService) AddPickup(ctx context.Context, request PickupTransport) (store.AuthorizedPickup, error) {
	if _, err := c.Guard.CheckChild(ctx, request.ChildId); err != nil {
		return store.AuthorizedPickup{}, err
	}

	if strings.TrimSpace(request.Name) == "" {
		return store.AuthorizedPickup{}, ErrNoPickupName
	}
	if strings.TrimSpace(request.Phone) == "" {
		return store.AuthorizedPickup{}, ErrNoPickupPhone
	}
	if request.Photo == "" {
		return store.AuthorizedPickup{}, ErrNoPickupPhoto
	}

	encoded := strings.TrimPrefix(request.Photo, "data:image/jpeg;base64,")
	photoPath, err := c.Storage.Store(ctx, encoded, "image/jpeg")
	if err != nil {
		return store.AuthorizedPickup{}, errors.Wrap(err, "failed to store pickup photo")
	}

	pickup, err := c.Store.AddPickup(nil, store.AuthorizedPickup{
		ChildId:   store.DbNullString(request.ChildId),
		Name:      store.DbNullString(strings.TrimSpace(request.Name)),
		Phone:     store.DbNullString(strings.TrimSpace(request.Phone)),
		PhotoPath: store.DbNullString(photoPath),
		AddedBy:   store.DbNullString(shared.GetUserId(ctx)),
	})
	if err != nil {
		return store.AuthorizedPickup{}, errors.Wrap(err, "failed to add pickup")
	}
	return pickup, nil
}

func (c *ChildService) ListPickups(ctx context.Context, childId string) ([]store.AuthorizedPickup, error) {
	if _, err := c.Guard.CheckChild(ctx, childId); err != nil {
		return nil, err
	}
	pickups, err := c.Store.ListPickupsOfChildren(nil, []string{childId})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pickups")
	}
	return pickups, nil
}

func (c *ChildService) RemovePickup(ctx context.Context, childId, pickupId string) error {
	if _, err := c.Guard.CheckChild(ctx, childId); err != nil {
		return err
	}

	pickup, err := c.Store.DeletePickup(nil, childId, pickupId)
	if err != nil {
		return errors.Wrap(err, "failed to remove pickup")
	}
	if err := c.Storage.Delete(ctx, pickup.PhotoPath.String); err != nil {
		c.Logger.Warn(ctx, "failed to delete pickup photo", "path", pickup.PhotoPath.String, "err", err.Error())
	}
	return nil
}

// ServiceMiddleware is a chainable behavior modifier for ChildService.
type ServiceMiddleware func(ChildService) ChildService
