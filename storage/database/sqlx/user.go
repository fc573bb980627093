package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/user"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         null.String    `db:"name"`
	Username     null.String    `db:"username"`
	Email        null.String    `db:"email"`
	IsActive     null.Bool      `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash null.Bytes     `db:"password_hash"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

func (row userRow) unpack() user.User {
	return user.User{
		ID:           row.ID,
		Name:         row.Name.String,
		Username:     row.Username.String,
		Email:        row.Email.String,
		IsActive:     row.IsActive.Ptr(),
		Roles:        row.Roles,
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

func packUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		Name:         null.NewString(usr.Name, usr.Name != ""),
		Username:     null.NewString(usr.Username, usr.Username != ""),
		Email:        null.NewString(usr.Email, usr.Email != ""),
		IsActive:     null.BoolFromPtr(usr.IsActive),
		Roles:        usr.Roles,
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User) error {
	query := `SELECT username = $1 FROM app_user WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND NOT (id = ANY($3))`
		args = append(args, pq.Array(ids))
	}
	query += ` LIMIT 1`

	var usernameTaken bool
	err := repo.db.GetContext(ctx, &usernameTaken, query, args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if usernameTaken {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := packUser(usr)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO app_user (id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :is_active, :roles, :password_hash, :created_at, :updated_at, :last_login)`,
		row,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	query := `SELECT * FROM app_user`
	var conds []string
	var args []interface{}

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			p := placeholder(len(args))
			conds = append(conds, "(name ILIKE "+p+" OR username ILIKE "+p+" OR email ILIKE "+p+")")
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			roleConds := make([]string, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				args = append(args, role+"%")
				roleConds = append(roleConds,
					"id IN (SELECT id FROM app_user, UNNEST(roles) user_role WHERE user_role ILIKE "+placeholder(len(args))+")")
			}
			conds = append(conds, "("+strings.Join(roleConds, " OR ")+")")
		}
		if filter.IsActive != nil {
			args = append(args, *filter.IsActive)
			conds = append(conds, "is_active = "+placeholder(len(args)))
		}
		if !filter.CreatedFrom.IsZero() {
			args = append(args, filter.CreatedFrom.UTC())
			conds = append(conds, "created_at >= "+placeholder(len(args)))
		}
		if !filter.CreatedTo.IsZero() {
			args = append(args, filter.CreatedTo.UTC())
			conds = append(conds, "created_at <= "+placeholder(len(args)))
		}
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		query += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.unpack())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var row userRow
	var err error
	switch {
	case filter.ID != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM app_user WHERE id = $1`, filter.ID)
	case filter.Username != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM app_user WHERE username = $1`, filter.Username)
	case filter.Email != "":
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM app_user WHERE email = $1`, filter.Email)
	case len(filter.UsernameOrEmail) > 0:
		uname := filter.UsernameOrEmail[0]
		email := uname
		if len(filter.UsernameOrEmail) > 1 {
			email = filter.UsernameOrEmail[1]
		}
		err = repo.db.GetContext(ctx, &row, `SELECT * FROM app_user WHERE username = $1 OR email = $2`, uname, email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return row.unpack(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	// partial update; only set fields that are provided
	sets := []string{"updated_at = now()"}
	args := []interface{}{usr.ID}

	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, col+" = "+placeholder(len(args)))
	}
	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.IsActive != nil {
		set("is_active", *usr.IsActive)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if len(usr.PasswordHash) > 0 {
		set("password_hash", usr.PasswordHash)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}

	query := `UPDATE app_user SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING *`
	var row userRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating user")
	}
	return row.unpack(), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if usr.ID == "" {
		return repo.CreateUser(ctx, usr)
	}
	updated, err := repo.UpdateUser(ctx, usr)
	if errors.Cause(err) == user.ErrNotFound {
		return repo.CreateUser(ctx, usr)
	}
	return updated, err
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.ExecContext(ctx, `DELETE FROM app_user WHERE id = ANY($1)`, pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}
