package store

import (
	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

type Store struct {
	Db              *gorm.DB `inject:""`
	StringGenerator interface {
		GenerateUuid() string
	} `inject:""`
}

func (s *Store) Tx() *gorm.DB {
	return s.Db.Begin()
}

// Transact runs fn inside a single transaction. Any error from fn rolls the
// whole transaction back, so multi-table mutations are all-or-nothing.
func (s *Store) Transact(fn func(tx *gorm.DB) error) error {
	tx := s.Db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (s *Store) dbOrTx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.Db
}

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolationCode
}
