package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jinzhu/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("a user with this email already exists")
	ErrInvalidRole  = errors.New("role is not valid")
)

const (
	ROLE_GUEST  = "guest"
	ROLE_PARENT = "parent"
	ROLE_ADMIN  = "admin"
)

var allRoles = []string{ROLE_GUEST, ROLE_PARENT, ROLE_ADMIN}

type Roles []Role

func (r *Roles) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		if v != "" {
			for _, role := range strings.Split(v, ",") {
				*r = append(*r, Role{Role: role})
			}
		}
	case []byte:
		if len(v) > 0 {
			for _, role := range strings.Split(string(v), ",") {
				*r = append(*r, Role{Role: role})
			}
		}
	case nil:
	default:
		return errors.New("need string with roles separated by comma")
	}
	return nil
}

func (r Roles) ToList() []string {
	roles := make([]string, 0)
	for _, role := range r {
		roles = append(roles, role.Role)
	}
	return roles
}

type Role struct {
	UserId string
	Role   string
}

type User struct {
	UserId   sql.NullString
	Name     sql.NullString
	Email    sql.NullString
	Password sql.NullString
	Roles    Roles `sql:"-"`
}

func (u User) Is(role string) bool {
	for _, r := range u.Roles {
		if r.Role == role {
			return true
		}
	}
	return false
}

const userColumns = `users.user_id,` +
	`users.name,` +
	`users.email,` +
	`(SELECT string_agg(roles.role, ',') FROM roles WHERE roles.user_id = users.user_id)`

func (s *Store) AddUser(tx *gorm.DB, user User) (User, error) {
	db := s.dbOrTx(tx)

	user.UserId = DbNullString(s.StringGenerator.GenerateUuid())

	err := db.Exec(`INSERT INTO users (user_id, name, email, password) VALUES (?, ?, ?, crypt(?, gen_salt('bf',8)))`,
		user.UserId, user.Name, user.Email, user.Password.String).Error
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	user.Password = sql.NullString{}

	return user, nil
}

func (s *Store) GetUser(tx *gorm.DB, userId string) (User, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Table("users").Select(userColumns).Where("users.user_id = ?", userId).Rows()
	if err != nil {
		return User{}, err
	}
	users, err := s.scanUserRows(rows)
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrUserNotFound
	}
	return users[0], nil
}

func (s *Store) GetUserByEmail(tx *gorm.DB, email string) (User, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Table("users").Select(userColumns).Where("users.email = ?", email).Rows()
	if err != nil {
		return User{}, err
	}
	users, err := s.scanUserRows(rows)
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrUserNotFound
	}
	return users[0], nil
}

func (s *Store) CheckUserCredentials(tx *gorm.DB, email, password string) (User, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Table("users").Select(userColumns).
		Where("users.email = ? AND users.password = crypt(?, users.password)", email, password).Rows()
	if err != nil {
		return User{}, err
	}
	users, err := s.scanUserRows(rows)
	if err != nil {
		return User{}, err
	}
	if len(users) == 0 {
		return User{}, ErrUserNotFound
	}
	return users[0], nil
}

func (s *Store) ListUsersByRole(tx *gorm.DB, roleConstraint string) ([]User, error) {
	db := s.dbOrTx(tx)

	rows, err := db.Table("users").Select(userColumns).
		Joins("left join roles ON roles.user_id = users.user_id").
		Where("roles.role = ?", roleConstraint).Rows()
	if err != nil {
		return nil, err
	}
	return s.scanUserRows(rows)
}

// DeleteUser removes the user and its role rows. It does not touch children:
// deciding what happens to them is the cascade's job.
func (s *Store) DeleteUser(tx *gorm.DB, userId string) error {
	db := s.dbOrTx(tx)

	if !s.userExists(db, userId) {
		return ErrUserNotFound
	}

	if err := db.Exec(`DELETE FROM roles WHERE user_id = ?`, userId).Error; err != nil {
		return err
	}
	if err := db.Exec(`DELETE FROM users WHERE user_id = ?`, userId).Error; err != nil {
		return err
	}

	return nil
}

func (s *Store) userExists(tx *gorm.DB, userId string) bool {
	u := User{}
	return !tx.Table("users").Select("users.user_id").Where("user_id = ?", userId).Scan(&u).RecordNotFound()
}

func (s *Store) AddRole(tx *gorm.DB, role Role) (Role, error) {
	db := s.dbOrTx(tx)

	if !s.isRoleValid(role.Role) {
		return Role{}, ErrInvalidRole
	}

	if err := db.Exec(`INSERT INTO roles (user_id, role) VALUES (?, ?)`, role.UserId, role.Role).Error; err != nil {
		return Role{}, err
	}
	return role, nil
}

func (s *Store) isRoleValid(role string) bool {
	for _, r := range allRoles {
		if role == r {
			return true
		}
	}
	return false
}

func (s *Store) scanUserRows(rows *sql.Rows) ([]User, error) {
	users := []User{}
	defer rows.Close()
	for rows.Next() {
		currentUser := User{}
		if err := rows.Scan(&currentUser.UserId,
			&currentUser.Name,
			&currentUser.Email,
			&currentUser.Roles); err != nil {
			return []User{}, err
		}
		for i := range currentUser.Roles {
			currentUser.Roles[i].UserId = currentUser.UserId.String
		}
		users = append(users, currentUser)
	}

	return users, nil
}

func DbNullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
