package store

import (
	"database/sql"

	"github.com/jinzhu/gorm"
	"github.com/lib/pq"
)

// LinkReport distinguishes "already linked" from "newly linked" so callers can
// report the effect of an idempotent batch link.
type LinkReport struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
}

// AddParentToChildren inserts parentId into the owner set of every existing
// child in childIds, and stamps both legacy columns with parentId so code
// still reading the single-owner shapes keeps working. Relinking an already
// linked child is a no-op counted in Matched but not in Modified.
func (s *Store) AddParentToChildren(tx *gorm.DB, parentId string, childIds []string) (LinkReport, error) {
	db := s.dbOrTx(tx)
	report := LinkReport{}

	if err := db.Table("children").Where("child_id = ANY(?)", pq.Array(childIds)).Count(&report.Matched).Error; err != nil {
		return LinkReport{}, err
	}

	res := db.Exec(`INSERT INTO child_parents (child_id, parent_id)
		SELECT children.child_id, ? FROM children WHERE children.child_id = ANY(?)
		ON CONFLICT (child_id, parent_id) DO NOTHING`,
		parentId, pq.Array(childIds))
	if err := res.Error; err != nil {
		return LinkReport{}, err
	}
	report.Modified = res.RowsAffected

	err := db.Exec(`UPDATE children SET legacy_parent_a = ?, legacy_parent_b = ? WHERE child_id = ANY(?)`,
		parentId, parentId, pq.Array(childIds)).Error
	if err != nil {
		return LinkReport{}, err
	}

	return report, nil
}

// RemoveParentFromChildren removes parentId from the owner set and clears any
// legacy column that still names it. It never deletes the child rows.
func (s *Store) RemoveParentFromChildren(tx *gorm.DB, parentId string, childIds []string) (LinkReport, error) {
	db := s.dbOrTx(tx)
	report := LinkReport{}

	if err := db.Table("children").Where("child_id = ANY(?)", pq.Array(childIds)).Count(&report.Matched).Error; err != nil {
		return LinkReport{}, err
	}

	res := db.Exec(`DELETE FROM child_parents WHERE parent_id = ? AND child_id = ANY(?)`,
		parentId, pq.Array(childIds))
	if err := res.Error; err != nil {
		return LinkReport{}, err
	}
	report.Modified = res.RowsAffected

	if err := db.Exec(`UPDATE children SET legacy_parent_a = NULL WHERE legacy_parent_a = ? AND child_id = ANY(?)`,
		parentId, pq.Array(childIds)).Error; err != nil {
		return LinkReport{}, err
	}
	if err := db.Exec(`UPDATE children SET legacy_parent_b = NULL WHERE legacy_parent_b = ? AND child_id = ANY(?)`,
		parentId, pq.Array(childIds)).Error; err != nil {
		return LinkReport{}, err
	}

	return report, nil
}

// UnlinkParentEverywhere removes parentId from every ownership shape of every
// child, without restricting to a child list. Used by the cascade.
func (s *Store) UnlinkParentEverywhere(tx *gorm.DB, parentId string) error {
	db := s.dbOrTx(tx)

	if err := db.Exec(`DELETE FROM child_parents WHERE parent_id = ?`, parentId).Error; err != nil {
		return err
	}
	if err := db.Exec(`UPDATE children SET legacy_parent_a = NULL WHERE legacy_parent_a = ?`, parentId).Error; err != nil {
		return err
	}
	return db.Exec(`UPDATE children SET legacy_parent_b = NULL WHERE legacy_parent_b = ?`, parentId).Error
}

// SetLegacyParents backfills both single-owner columns with the designated
// owner. The cascade uses it so legacy-reading code paths keep seeing a value
// after the previous single owner is gone.
func (s *Store) SetLegacyParents(tx *gorm.DB, childId, parentId string) error {
	db := s.dbOrTx(tx)

	res := db.Exec(`UPDATE children SET legacy_parent_a = ?, legacy_parent_b = ? WHERE child_id = ?`,
		parentId, parentId, childId)
	if err := res.Error; err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return ErrChildNotFound
	}
	return nil
}

// The serializing index on children.external_id is partial, so the conflict
// target must repeat its predicate or Postgres cannot infer the arbiter.
const linkOrCreateChildInsert = `INSERT INTO children (child_id, name, external_id, birth_date, legacy_parent_a, legacy_parent_b)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING`

// LinkOrCreateChild is the single atomic find-matching-or-insert primitive
// behind self-serve registration. The unique index on external_id is the only
// serialization point: the insert either wins the race or affects no row, and
// an existing row is then evaluated under a row lock. There is never a
// separate existence check before the insert.
//
// Returns the child, whether it was created, and ErrExternalIdTaken when the
// external id belongs to a child owned by somebody else.
func (s *Store) LinkOrCreateChild(tx *gorm.DB, parentId string, child Child) (Child, bool, error) {
	db := s.dbOrTx(tx)

	childId := s.StringGenerator.GenerateUuid()
	res := db.Exec(linkOrCreateChildInsert,
		childId, child.Name, child.ExternalId, child.BirthDate, parentId, parentId)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return Child{}, false, ErrExternalIdTaken
		}
		return Child{}, false, err
	}

	if res.RowsAffected == 1 {
		if err := db.Exec(`INSERT INTO child_parents (child_id, parent_id) VALUES (?, ?)`, childId, parentId).Error; err != nil {
			return Child{}, false, err
		}
		created, err := s.GetChild(db, childId, SearchOptions{})
		return created, true, err
	}

	// A row with this external id already exists. Lock it so concurrent link
	// and cascade operations serialize on the same row, then decide.
	existing, err := s.lockChildByExternalId(db, child.ExternalId.String)
	if err != nil {
		return Child{}, false, err
	}

	if existing.IsOwnedBy(parentId) {
		return existing, false, nil
	}
	if len(existing.Owners()) > 0 {
		return Child{}, false, ErrExternalIdTaken
	}

	// Unowned child: the caller adopts it.
	if _, err := s.AddParentToChildren(db, parentId, []string{existing.ChildId.String}); err != nil {
		return Child{}, false, err
	}
	adopted, err := s.GetChild(db, existing.ChildId.String, SearchOptions{})
	return adopted, false, err
}

func (s *Store) lockChildByExternalId(db *gorm.DB, externalId string) (Child, error) {
	rows, err := db.Raw(`SELECT `+childColumns+` FROM children WHERE children.external_id = ? FOR UPDATE OF children`,
		externalId).Rows()
	if err != nil {
		return Child{}, err
	}
	children, err := s.scanChildRows(rows)
	if err != nil {
		return Child{}, err
	}
	if len(children) == 0 {
		return Child{}, ErrChildNotFound
	}
	return children[0], nil
}

// FindSolelyOwnedChildIds returns the children owned by parentId and nobody
// else, under any ownership shape. Used by the hard cascade to compute the
// delete set.
func (s *Store) FindSolelyOwnedChildIds(tx *gorm.DB, parentId string) ([]string, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Raw(`SELECT children.child_id FROM children
		WHERE `+ownedByCondition+`
		AND (children.legacy_parent_a IS NULL OR children.legacy_parent_a = ?)
		AND (children.legacy_parent_b IS NULL OR children.legacy_parent_b = ?)
		AND NOT EXISTS (SELECT 1 FROM child_parents WHERE child_parents.child_id = children.child_id AND child_parents.parent_id <> ?)`,
		parentId, parentId, parentId, parentId, parentId, parentId).Rows()
	if err != nil {
		return nil, err
	}
	return scanIdRows(rows)
}

// FindOrphanChildIds returns, among candidateIds, the children left with no
// owner under any representation.
func (s *Store) FindOrphanChildIds(tx *gorm.DB, candidateIds []string) ([]string, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Raw(`SELECT children.child_id FROM children
		WHERE children.child_id = ANY(?)
		AND children.legacy_parent_a IS NULL
		AND children.legacy_parent_b IS NULL
		AND NOT EXISTS (SELECT 1 FROM child_parents WHERE child_parents.child_id = children.child_id)`,
		pq.Array(candidateIds)).Rows()
	if err != nil {
		return nil, err
	}
	return scanIdRows(rows)
}

// DeleteChildren removes the child rows and their ownership entries. Reports
// and pickups are deleted by their own store methods inside the same
// transaction.
func (s *Store) DeleteChildren(tx *gorm.DB, childIds []string) (int64, error) {
	db := s.dbOrTx(tx)

	if err := db.Exec(`DELETE FROM child_parents WHERE child_id = ANY(?)`, pq.Array(childIds)).Error; err != nil {
		return 0, err
	}
	res := db.Exec(`DELETE FROM children WHERE child_id = ANY(?)`, pq.Array(childIds))
	return res.RowsAffected, res.Error
}

func scanIdRows(rows *sql.Rows) ([]string, error) {
	ids := []string{}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
