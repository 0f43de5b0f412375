package store

import (
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/gorm"
)

var (
	ErrChildNotFound = errors.New("child not found")

	// The external id already identifies a child owned by somebody else, or a
	// concurrent registration won the creation race.
	ErrExternalIdTaken = errors.New("external id already belongs to another child")
)

// OwnerSet is the preferred ownership shape: one row per parent in
// child_parents, aggregated into a comma separated list at read time.
type OwnerSet []string

func (o *OwnerSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		if v != "" {
			*o = append(*o, strings.Split(v, ",")...)
		}
	case []byte:
		if len(v) > 0 {
			*o = append(*o, strings.Split(string(v), ",")...)
		}
	case nil:
	default:
		return errors.New("need string with parent ids separated by comma")
	}
	return nil
}

func (o OwnerSet) ToList() []string {
	list := make([]string, 0)
	return append(list, o...)
}

type Child struct {
	ChildId          sql.NullString
	Name             sql.NullString
	ExternalId       sql.NullString
	BirthDate        time.Time
	MedicalCondition sql.NullString
	SpecialNotes     sql.NullString

	// Ownership is stored redundantly: the owner set plus two single-owner
	// columns written before multi-parent support existed. Reads must OR all
	// three shapes; no single column is authoritative.
	LegacyParentA sql.NullString
	LegacyParentB sql.NullString
	OwnerSet      OwnerSet `sql:"-"`
}

// Owners normalizes the three ownership shapes into one deduplicated,
// sorted set. Decisions are only ever made against this view.
func (c Child) Owners() []string {
	seen := map[string]bool{}
	owners := make([]string, 0)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			owners = append(owners, id)
		}
	}
	for _, id := range c.OwnerSet {
		add(id)
	}
	add(c.LegacyParentA.String)
	add(c.LegacyParentB.String)
	sort.Strings(owners)
	return owners
}

// IsOwnedBy is the in-process form of the ownership predicate. It must stay
// equivalent to the ownedBy query filter below.
func (c Child) IsOwnedBy(userId string) bool {
	if userId == "" {
		return false
	}
	for _, owner := range c.Owners() {
		if owner == userId {
			return true
		}
	}
	return false
}

type SearchOptions struct {
	ParentId string
}

const childColumns = `children.child_id,` +
	`children.name,` +
	`children.external_id,` +
	`children.birth_date,` +
	`children.medical_condition,` +
	`children.special_notes,` +
	`children.legacy_parent_a,` +
	`children.legacy_parent_b,` +
	`(SELECT string_agg(child_parents.parent_id, ',') FROM child_parents WHERE child_parents.child_id = children.child_id)`

// ownedByCondition is the query-filter form of the ownership predicate: the
// same OR across the three shapes that Child.IsOwnedBy evaluates in memory.
const ownedByCondition = `(children.child_id IN (SELECT child_id FROM child_parents WHERE parent_id = ?)` +
	` OR children.legacy_parent_a = ?` +
	` OR children.legacy_parent_b = ?)`

func ownedBy(query *gorm.DB, parentId string) *gorm.DB {
	return query.Where(ownedByCondition, parentId, parentId, parentId)
}

func (s *Store) AddChild(tx *gorm.DB, child Child) (Child, error) {
	db := s.dbOrTx(tx)

	child.ChildId = DbNullString(s.StringGenerator.GenerateUuid())

	err := db.Exec(`INSERT INTO children (child_id, name, external_id, birth_date, medical_condition, special_notes, legacy_parent_a, legacy_parent_b) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		child.ChildId, child.Name, child.ExternalId, child.BirthDate,
		child.MedicalCondition, child.SpecialNotes, child.LegacyParentA, child.LegacyParentB).Error
	if err != nil {
		if isUniqueViolation(err) {
			return Child{}, ErrExternalIdTaken
		}
		return Child{}, err
	}

	return child, nil
}

func (s *Store) GetChild(tx *gorm.DB, childId string, options SearchOptions) (Child, error) {
	db := s.dbOrTx(tx)

	query := db.Table("children").Select(childColumns)
	if options.ParentId != "" {
		query = ownedBy(query, options.ParentId)
	}
	query = query.Where("children.child_id = ?", childId)

	rows, err := query.Rows()
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

func (s *Store) ListChildren(tx *gorm.DB, options SearchOptions) ([]Child, error) {
	db := s.dbOrTx(tx)

	query := db.Table("children").Select(childColumns)
	if options.ParentId != "" {
		query = ownedBy(query, options.ParentId)
	}

	rows, err := query.Rows()
	if err != nil {
		return []Child{}, err
	}
	return s.scanChildRows(rows)
}

func (s *Store) UpdateChildNotes(tx *gorm.DB, childId, medicalCondition, specialNotes string) (Child, error) {
	db := s.dbOrTx(tx)

	res := db.Exec(`UPDATE children SET medical_condition = ?, special_notes = ? WHERE child_id = ?`,
		medicalCondition, specialNotes, childId)
	if err := res.Error; err != nil {
		return Child{}, err
	}
	if res.RowsAffected == 0 {
		return Child{}, ErrChildNotFound
	}

	return s.GetChild(db, childId, SearchOptions{})
}

func (s *Store) scanChildRows(rows *sql.Rows) ([]Child, error) {
	children := []Child{}
	defer rows.Close()
	for rows.Next() {
		currentChild := Child{}
		if err := rows.Scan(&currentChild.ChildId,
			&currentChild.Name,
			&currentChild.ExternalId,
			&currentChild.BirthDate,
			&currentChild.MedicalCondition,
			&currentChild.SpecialNotes,
			&currentChild.LegacyParentA,
			&currentChild.LegacyParentB,
			&currentChild.OwnerSet); err != nil {
			return []Child{}, err
		}
		children = append(children, currentChild)
	}

	return children, nil
}
