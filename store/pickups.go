package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

var (
	ErrPickupNotFound = errors.New("authorized pickup not found")
)

// AuthorizedPickup is a person a parent allows to collect the child. The
// photo lives in file storage; only its path is stored here.
type AuthorizedPickup struct {
	PickupId  sql.NullString `json:"pickupId"`
	ChildId   sql.NullString `json:"childId"`
	Name      sql.NullString `json:"name"`
	Phone     sql.NullString `json:"phone"`
	PhotoPath sql.NullString `json:"photoPath"`
	AddedBy   sql.NullString `json:"addedBy"`
	AddedAt   time.Time      `json:"addedAt"`
}

func (s *Store) AddPickup(tx *gorm.DB, pickup AuthorizedPickup) (AuthorizedPickup, error) {
	db := s.dbOrTx(tx)

	pickup.PickupId = DbNullString(s.StringGenerator.GenerateUuid())
	pickup.AddedAt = time.Now().UTC()

	err := db.Exec(`INSERT INTO authorized_pickups (pickup_id, child_id, name, phone, photo_path, added_by, added_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		pickup.PickupId, pickup.ChildId, pickup.Name, pickup.Phone,
		pickup.PhotoPath, pickup.AddedBy, pickup.AddedAt).Error
	if err != nil {
		return AuthorizedPickup{}, err
	}

	return pickup, nil
}

func (s *Store) ListPickupsOfChildren(tx *gorm.DB, childIds []string) ([]AuthorizedPickup, error) {
	db := s.dbOrTx(tx)

	pickups := []AuthorizedPickup{}
	err := db.Table("authorized_pickups").
		Select("pickup_id, child_id, name, phone, photo_path, added_by, added_at").
		Where("child_id = ANY(?)", pq.Array(childIds)).
		Order("added_at").
		Scan(&pickups).Error
	if err != nil {
		return nil, err
	}
	return pickups, nil
}

func (s *Store) DeletePickup(tx *gorm.DB, childId, pickupId string) (AuthorizedPickup, error) {
	db := s.dbOrTx(tx)

	pickup := AuthorizedPickup{}
	res := db.Table("authorized_pickups").
		Select("pickup_id, child_id, name, phone, photo_path, added_by, added_at").
		Where("child_id = ? AND pickup_id = ?", childId, pickupId).
		Scan(&pickup)
	if res.RecordNotFound() {
		return AuthorizedPickup{}, ErrPickupNotFound
	}
	if err := res.Error; err != nil {
		return AuthorizedPickup{}, err
	}

	err := db.Exec(`DELETE FROM authorized_pickups WHERE pickup_id = ?`, pickupId).Error
	if err != nil {
		return AuthorizedPickup{}, err
	}
	return pickup, nil
}

func (s *Store) DeletePickupsOfChildren(tx *gorm.DB, childIds []string) error {
	db := s.dbOrTx(tx)
	return db.Exec(`DELETE FROM authorized_pickups WHERE child_id = ANY(?)`, pq.Array(childIds)).Error
}
