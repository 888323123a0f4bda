package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var userColumns = []string{
	"id", "email", "password", "name", "phone", "avatar_url", "role",
	"company_id", "created_by", "is_active", "is_email_verified",
	"verification_secret", "verification_expires_at", "verification_attempts",
	"verification_last_attempt_at", "verification_resend_count", "verification_last_resend_at",
	"password_reset_secret", "password_reset_expires_at", "password_reset_attempts",
	"password_reset_last_attempt_at", "password_reset_resend_count", "password_reset_cooldown_ends_at",
	"password_reset_resend_blocked", "password_reset_resend_blocked_until",
	"created_at", "updated_at",
}

var (
	insertUserQuery = namedInsert("users", userColumns)
	updateUserQuery = namedUpdate("users", userColumns)
	selectUserQuery = "SELECT " + columnList(userColumns) + " FROM users"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. A taken email yields repository.ErrDuplicate.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return createUser(ctx, r.db, user)
}

func createUser(ctx context.Context, exec sqlx.ExtContext, user *domain.User) error {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if _, err := sqlx.NamedExecContext(ctx, exec, insertUserQuery, user); err != nil {
		return writeErr(err, "create user")
	}
	return nil
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.GetContext(ctx, &user, selectUserQuery+" WHERE id = $1", id); err != nil {
		return nil, getErr(err, "user")
	}
	return &user, nil
}

// GetByEmail retrieves a user by their (normalized) email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getUserByEmail(ctx, r.db, email)
}

func getUserByEmail(ctx context.Context, q sqlx.QueryerContext, email string) (*domain.User, error) {
	var user domain.User
	if err := sqlx.GetContext(ctx, q, &user, selectUserQuery+" WHERE email = $1", email); err != nil {
		return nil, getErr(err, "user")
	}
	return &user, nil
}

// Update writes every mutable column of the user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, updateUserQuery, user)
	if err != nil {
		return writeErr(err, "update user")
	}
	return checkAffected(result, "user")
}

// Delete removes a user from the database
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(result, "user")
}

// List returns one page of a company's users and the total count
func (r *userRepository) List(ctx context.Context, f domain.UserFilter) ([]*domain.User, int, error) {
	w := &conditions{}
	w.where("company_id = " + w.arg(f.CompanyID))
	if f.Role != nil {
		w.where("role = " + w.arg(*f.Role))
	}
	if f.IsActive != nil {
		w.where("is_active = " + w.arg(*f.IsActive))
	}
	if f.MembersOnly {
		w.where("role <> 'owner'")
	}
	if f.ExcludeID != nil {
		w.where("id <> " + w.arg(*f.ExcludeID))
	}
	w.search(f.Search, "name", "email")

	return selectPage[domain.User](ctx, r.db, "users", userColumns, w, "created_at DESC", f.Limit, f.Offset)
}

func (r *userRepository) CountActiveMembers(ctx context.Context, companyID uuid.UUID, role *domain.Role) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE company_id = $1 AND is_active = true AND role <> 'owner'`
	args := []any{companyID}
	if role != nil {
		query += ` AND role = $2`
		args = append(args, *role)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count company users: %w", err)
	}
	return count, nil
}

// RegisterOwner creates the owner, then the company pointing at them, then
// links the two and opens the pending subscription
func (r *userRepository) RegisterOwner(ctx context.Context, user *domain.User, company *domain.Company, sub *domain.Subscription) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		user.CompanyID = nil
		if err := createUser(ctx, tx, user); err != nil {
			return err
		}

		company.OwnerID = &user.ID
		if err := createCompany(ctx, tx, company); err != nil {
			return err
		}

		companyID := company.ID
		user.CompanyID = &companyID
		if _, err := tx.ExecContext(ctx, `UPDATE users SET company_id = $1 WHERE id = $2`, companyID, user.ID); err != nil {
			return fmt.Errorf("failed to link user to company: %w", err)
		}

		sub.UserID = user.ID
		return createSubscription(ctx, tx, sub)
	})
}

// findOrCreateUser inserts user unless the email is already registered, in
// which case the existing row's id is returned
func findOrCreateUser(ctx context.Context, tx *sqlx.Tx, user *domain.User) (uuid.UUID, error) {
	existing, err := getUserByEmail(ctx, tx, user.Email)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, err
	}
	if err := createUser(ctx, tx, user); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
