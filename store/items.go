package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

var (
	ErrNoticeNotFound = errors.New("required items notice not found")
)

// RequiredItemsNotice is what the staff asks the parents to bring for a
// child. Notices are append-only; the newest one per child is the current
// request.
type RequiredItemsNotice struct {
	NoticeId  sql.NullString `json:"noticeId"`
	ChildId   sql.NullString `json:"childId"`
	Diapers   bool           `json:"diapers"`
	WetWipes  bool           `json:"wetWipes"`
	Clothing  bool           `json:"clothing"`
	Other     sql.NullString `json:"other"`
	CreatedBy sql.NullString `json:"createdBy"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s *Store) AddRequiredItemsNotice(tx *gorm.DB, notice RequiredItemsNotice) (RequiredItemsNotice, error) {
	db := s.dbOrTx(tx)

	notice.NoticeId = DbNullString(s.StringGenerator.GenerateUuid())
	notice.CreatedAt = time.Now().UTC()

	err := db.Exec(`INSERT INTO required_items (notice_id, child_id, diapers, wet_wipes, clothing, other, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		notice.NoticeId, notice.ChildId, notice.Diapers, notice.WetWipes,
		notice.Clothing, notice.Other, notice.CreatedBy, notice.CreatedAt).Error
	if err != nil {
		return RequiredItemsNotice{}, err
	}

	return notice, nil
}

// GetLatestRequiredItemsNotice returns the newest notice of the child.
func (s *Store) GetLatestRequiredItemsNotice(tx *gorm.DB, childId string) (RequiredItemsNotice, error) {
	db := s.dbOrTx(tx)

	notice := RequiredItemsNotice{}
	res := db.Table("required_items").
		Select("notice_id, child_id, diapers, wet_wipes, clothing, other, created_by, created_at").
		Where("child_id = ?", childId).
		Order("created_at desc").
		Limit(1).
		Scan(&notice)
	if res.RecordNotFound() {
		return RequiredItemsNotice{}, ErrNoticeNotFound
	}
	if err := res.Error; err != nil {
		return RequiredItemsNotice{}, err
	}
	return notice, nil
}

func (s *Store) DeleteRequiredItemsOfChildren(tx *gorm.DB, childIds []string) error {
	db := s.dbOrTx(tx)
	return db.Exec(`DELETE FROM required_items WHERE child_id = ANY(?)`, pq.Array(childIds)).Error
}
