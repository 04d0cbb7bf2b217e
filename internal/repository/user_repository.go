package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classquest-api/internal/models"
)

const userColumns = `id, email, password_hash, name, role, user_class, registration_id, date_of_birth, gender,
credits, rank, total_tests_completed, total_courses_created, total_students_enrolled, created_at, updated_at`

// UserRepository provides database access for accounts and their progression counters.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, strings.ToLower(email)); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// Create inserts a freshly registered account.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(user.Email)
	const query = `INSERT INTO users (id, email, password_hash, name, role, user_class, registration_id, date_of_birth, gender,
credits, rank, total_tests_completed, total_courses_created, total_students_enrolled, created_at, updated_at)
VALUES (:id, :email, :password_hash, :name, :role, :user_class, :registration_id, :date_of_birth, :gender,
:credits, :rank, :total_tests_completed, :total_courses_created, :total_students_enrolled, :created_at, :updated_at)`
	if _, err := conn(ctx, r.db).NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// SetupRole persists the chosen role and display name and zeroes every counter.
func (r *UserRepository) SetupRole(ctx context.Context, id string, role models.UserRole, name, rank string) error {
	const query = `UPDATE users SET role = $2, name = $3, credits = 0, rank = $4, total_tests_completed = 0,
total_courses_created = 0, total_students_enrolled = 0, updated_at = $5 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, role, name, rank, time.Now().UTC()); err != nil {
		return fmt.Errorf("setup role: %w", err)
	}
	return nil
}

// UpdateExtendedProfile stores registration details and the class assignment.
func (r *UserRepository) UpdateExtendedProfile(ctx context.Context, id, registrationID string, dob *time.Time, gender string, class models.ClassLabel) error {
	const query = `UPDATE users SET registration_id = $2, date_of_birth = $3, gender = $4, user_class = $5, updated_at = $6 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, registrationID, dob, gender, class, time.Now().UTC()); err != nil {
		return fmt.Errorf("update extended profile: %w", err)
	}
	return nil
}

// PatchProfile applies the non-nil fields of patch.
func (r *UserRepository) PatchProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	sets := []string{}
	args := []interface{}{id}
	if patch.Name != nil {
		args = append(args, *patch.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.UserClass != nil {
		args = append(args, *patch.UserClass)
		sets = append(sets, fmt.Sprintf("user_class = $%d", len(args)))
	}
	if patch.RegistrationID != nil {
		args = append(args, *patch.RegistrationID)
		sets = append(sets, fmt.Sprintf("registration_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $1", strings.Join(sets, ", "))
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch profile: %w", err)
	}
	return nil
}

// ApplyStudentProgress atomically adds credits and completed tests and returns the
// updated row. Credits never drop below zero.
func (r *UserRepository) ApplyStudentProgress(ctx context.Context, id string, creditsDelta, testsDelta int) (*models.User, error) {
	query := `UPDATE users SET credits = GREATEST(credits + $2, 0), total_tests_completed = total_tests_completed + $3, updated_at = $4
WHERE id = $1 RETURNING ` + userColumns
	var user models.User
	if err := conn(ctx, r.db).GetContext(ctx, &user, query, id, creditsDelta, testsDelta, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("apply student progress: %w", err)
	}
	return &user, nil
}

// SetRank stores the rank label derived from the current credits.
func (r *UserRepository) SetRank(ctx context.Context, id, rank string) error {
	const query = `UPDATE users SET rank = $2 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, rank); err != nil {
		return fmt.Errorf("set rank: %w", err)
	}
	return nil
}

// AdjustTeacherCounters adds deltas to a teacher's denormalized counters.
func (r *UserRepository) AdjustTeacherCounters(ctx context.Context, id string, coursesDelta, studentsDelta int) error {
	const query = `UPDATE users SET total_courses_created = GREATEST(total_courses_created + $2, 0),
total_students_enrolled = GREATEST(total_students_enrolled + $3, 0), updated_at = $4 WHERE id = $1`
	if _, err := conn(ctx, r.db).ExecContext(ctx, query, id, coursesDelta, studentsDelta, time.Now().UTC()); err != nil {
		return fmt.Errorf("adjust teacher counters: %w", err)
	}
	return nil
}

// RecountTeacherCounters recomputes every teacher's course and enrollment counters
// from the courses and enrollments tables.
func (r *UserRepository) RecountTeacherCounters(ctx context.Context) (int64, error) {
	const query = `UPDATE users u SET
total_courses_created = (SELECT COUNT(*) FROM courses c WHERE c.teacher_id = u.id),
total_students_enrolled = (SELECT COUNT(*) FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE c.teacher_id = u.id)
WHERE u.role = $1`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, models.RoleTeacher)
	if err != nil {
		return 0, fmt.Errorf("recount teacher counters: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// ListByRole returns every user holding role.
func (r *UserRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at ASC, id ASC`
	var users []models.User
	if err := conn(ctx, r.db).SelectContext(ctx, &users, query, role); err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return users, nil
}

// ListStudents returns students matching filter with a total count.
func (r *UserRepository) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.User, int, error) {
	conditions := []string{"role = $1"}
	args := []interface{}{models.RoleStudent}
	if filter.Class != "" {
		args = append(args, filter.Class)
		conditions = append(conditions, fmt.Sprintf("user_class = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(name) LIKE $%d OR LOWER(registration_id) LIKE $%d)", len(args), len(args), len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY name ASC, id ASC LIMIT %d OFFSET %d`, userColumns, where, size, offset)
	var users []models.User
	if err := conn(ctx, r.db).SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	var total int
	if err := conn(ctx, r.db).GetContext(ctx, &total, "SELECT COUNT(*) FROM users WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return users, total, nil
}

// TopStudents returns the highest-credit students. Ties keep signup order.
func (r *UserRepository) TopStudents(ctx context.Context, limit int) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY credits DESC, created_at ASC, id ASC LIMIT $2`
	var users []models.User
	if err := conn(ctx, r.db).SelectContext(ctx, &users, query, models.RoleStudent, limit); err != nil {
		return nil, fmt.Errorf("top students: %w", err)
	}
	return users, nil
}

// Delete removes the account row.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.db).ExecContext(ctx, "DELETE FROM users WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
