package auth

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the durable identity store. Refresh token, confirmation, and
// avatar changes are single-field writes so concurrent sessions resolve by
// last-writer-wins at the database.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	StoreRefreshToken(ctx context.Context, user *User, token string) error
	StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, user *User, token string) error
	ClearRefreshToken(ctx context.Context, user *User) error
	ClearRefreshTokenTx(ctx context.Context, tx bun.IDB, user *User) error

	ConfirmEmail(ctx context.Context, email string) error
	ConfirmEmailTx(ctx context.Context, tx bun.IDB, email string) error

	UpdateAvatar(ctx context.Context, email, url string) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
	_ IdentityStore                = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}

	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			// repository.NewRecordNotFound carries a database scoped category
			// that goerrors.IsNotFound does not match
			return nil, goerrors.New("identity not found", goerrors.CategoryNotFound).
				WithTextCode(TextCodeIdentityNotFound).
				WithMetadata(map[string]any{
					"email": email,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)
	return a.Repository.CreateTx(ctx, tx, user)
}

func (a *users) StoreRefreshToken(ctx context.Context, user *User, token string) error {
	return a.StoreRefreshTokenTx(ctx, a.db, user, token)
}

func (a *users) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, user *User, token string) error {
	if err := a.setRefreshToken(ctx, tx, user.ID, token); err != nil {
		return err
	}
	user.RefreshToken = token
	return nil
}

func (a *users) ClearRefreshToken(ctx context.Context, user *User) error {
	return a.ClearRefreshTokenTx(ctx, a.db, user)
}

func (a *users) ClearRefreshTokenTx(ctx context.Context, tx bun.IDB, user *User) error {
	if err := a.setRefreshToken(ctx, tx, user.ID, ""); err != nil {
		return err
	}
	user.RefreshToken = ""
	return nil
}

func (a *users) setRefreshToken(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) error {
	// NOTE: raw update so we only ever touch the one column; the ORM update
	// path would zero unrelated fields on a sparse record.
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"refresh_token" = ?,
			"updated_at" = CURRENT_TIMESTAMP
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, token, id).Exec(ctx)

	return err
}

func (a *users) ConfirmEmail(ctx context.Context, email string) error {
	return a.ConfirmEmailTx(ctx, a.db, email)
}

func (a *users) ConfirmEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"is_email_verified" = TRUE,
			"updated_at" = CURRENT_TIMESTAMP
		WHERE
			("usr".email = ?)
			AND "usr"."deleted_at" IS NULL;
	`, email).Exec(ctx)

	return err
}

func (a *users) UpdateAvatar(ctx context.Context, email, url string) (*User, error) {
	_, err := a.db.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"avatar" = ?,
			"updated_at" = CURRENT_TIMESTAMP
		WHERE
			("usr".email = ?)
			AND "usr"."deleted_at" IS NULL;
	`, url, email).Exec(ctx)
	if err != nil {
		return nil, err
	}

	return a.GetByEmail(ctx, email)
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
