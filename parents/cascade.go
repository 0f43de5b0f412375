package parents

import (
	"context"

	"github.com/Kanir1/KindergartenApp/store"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// Cascade policies: what happens to a parent's children when the parent
// account is deleted. Preserve is the default because it is the only policy
// that never destroys data.
const (
	CascadeHard     = "hard"     // delete children owned only by this parent, and their reports
	CascadeOrphans  = "orphans"  // unlink first, then delete only children left with no owner at all
	CascadePreserve = "preserve" // unlink and re-home; never delete children or reports
)

var (
	ErrUnknownCascadePolicy = errors.New("unknown cascade policy")
)

func ValidateCascadePolicy(policy string) error {
	switch policy {
	case CascadeHard, CascadeOrphans, CascadePreserve:
		return nil
	}
	return ErrUnknownCascadePolicy
}

type CascadeResult struct {
	Policy                string `json:"policy"`
	ChildrenDeleted       int64  `json:"childrenDeleted"`
	ChildrenPreserved     int    `json:"childrenPreserved"`
	DailyReportsDeleted   int64  `json:"dailyReportsDeleted"`
	MonthlyReportsDeleted int64  `json:"monthlyReportsDeleted"`
	UsersDeleted          int    `json:"usersDeleted"`
}

// DeleteParent removes a parent account and applies the configured cascade
// policy to its children. Everything after validation runs in one
// transaction: a failure anywhere leaves the parent, its children and their
// reports exactly as they were.
func (s *ParentService) DeleteParent(ctx context.Context, parentId string) (CascadeResult, error) {
	policy := s.Config.CascadePolicy
	if err := ValidateCascadePolicy(policy); err != nil {
		return CascadeResult{}, err
	}

	user, err := s.Store.GetUser(nil, parentId)
	if err != nil {
		return CascadeResult{}, err
	}
	if !user.Is(store.ROLE_PARENT) {
		return CascadeResult{}, ErrNotParent
	}

	result := CascadeResult{Policy: policy}
	orphanedPhotos := []string{}

	err = s.Store.Transact(func(tx *gorm.DB) error {
		owned, err := s.Store.ListChildren(tx, store.SearchOptions{ParentId: parentId})
		if err != nil {
			return err
		}
		ownedIds := childIds(owned)

		switch policy {
		case CascadeHard:
			sole, err := s.Store.FindSolelyOwnedChildIds(tx, parentId)
			if err != nil {
				return err
			}
			coOwned := subtract(ownedIds, sole)
			if len(coOwned) > 0 {
				if _, err := s.Store.RemoveParentFromChildren(tx, parentId, coOwned); err != nil {
					return err
				}
			}
			photos, err := s.deleteChildrenCascade(tx, sole, &result)
			if err != nil {
				return err
			}
			orphanedPhotos = photos

		case CascadeOrphans:
			if err := s.Store.UnlinkParentEverywhere(tx, parentId); err != nil {
				return err
			}
			orphans, err := s.Store.FindOrphanChildIds(tx, ownedIds)
			if err != nil {
				return err
			}
			photos, err := s.deleteChildrenCascade(tx, orphans, &result)
			if err != nil {
				return err
			}
			orphanedPhotos = photos

		case CascadePreserve:
			if err := s.Store.UnlinkParentEverywhere(tx, parentId); err != nil {
				return err
			}
			for _, childId := range ownedIds {
				child, err := s.Store.GetChild(tx, childId, store.SearchOptions{})
				if err != nil {
					return err
				}
				owners := child.Owners()
				if len(owners) == 0 {
					continue
				}
				// Deterministic choice: Owners() is sorted, so the first
				// entry is the lowest remaining owner id.
				if err := s.Store.SetLegacyParents(tx, childId, owners[0]); err != nil {
					return err
				}
				result.ChildrenPreserved++
			}
		}

		return s.Store.DeleteUser(tx, parentId)
	})
	if err != nil {
		return CascadeResult{}, errors.Wrap(err, "cascade failed")
	}
	result.UsersDeleted = 1

	// Photos are removed only after the transaction committed; a leaked file
	// is recoverable, a half-applied cascade is not.
	for _, photo := range orphanedPhotos {
		if err := s.Storage.Delete(ctx, photo); err != nil {
			s.Logger.Warn(ctx, "failed to delete pickup photo", "path", photo, "err", err.Error())
		}
	}

	return result, nil
}

func (s *ParentService) deleteChildrenCascade(tx *gorm.DB, ids []string, result *CascadeResult) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	counts, err := s.Store.DeleteReportsOfChildren(tx, ids)
	if err != nil {
		return nil, err
	}
	result.DailyReportsDeleted = counts.Daily
	result.MonthlyReportsDeleted = counts.Monthly

	pickups, err := s.Store.ListPickupsOfChildren(tx, ids)
	if err != nil {
		return nil, err
	}
	photos := make([]string, 0, len(pickups))
	for _, pickup := range pickups {
		photos = append(photos, pickup.PhotoPath.String)
	}
	if err := s.Store.DeletePickupsOfChildren(tx, ids); err != nil {
		return nil, err
	}
	if err := s.Store.DeleteRequiredItemsOfChildren(tx, ids); err != nil {
		return nil, err
	}

	deleted, err := s.Store.DeleteChildren(tx, ids)
	if err != nil {
		return nil, err
	}
	result.ChildrenDeleted = deleted

	return photos, nil
}

func subtract(from, remove []string) []string {
	removed := map[string]bool{}
	for _, id := range remove {
		removed[id] = true
	}
	rest := []string{}
	for _, id := range from {
		if !removed[id] {
			rest = append(rest, id)
		}
	}
	return rest
}
