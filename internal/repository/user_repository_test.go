package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classquest-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRowColumns = []string{"id", "email", "password_hash", "name", "role", "user_class", "registration_id", "date_of_birth", "gender",
	"credits", "rank", "total_tests_completed", "total_courses_created", "total_students_enrolled", "created_at", "updated_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "user@example.com", "hash", "User", "student", "Class 8", "", nil, "", 12, "Banana Sprout", 3, 0, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("user@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "User@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)
	assert.Equal(t, models.Class8, user.UserClass)
	assert.Equal(t, 12, user.Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Email: "a@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyStudentProgressReturnsUpdatedRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow("stu-1", "s@example.com", "hash", "Stu", "student", "Class 8", "", nil, "", 20, "Banana Sprout", 1, 0, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET credits = GREATEST(credits + $2, 0), total_tests_completed = total_tests_completed + $3")).
		WithArgs("stu-1", 1, 0, sqlmock.AnyArg()).
		WillReturnRows(rows)

	user, err := repo.ApplyStudentProgress(context.Background(), "stu-1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, user.Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchProfileBuildsSetClause(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	name := "New Name"
	class := models.Class9
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name = $2, user_class = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("stu-1", name, class, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.PatchProfile(context.Background(), "stu-1", models.ProfilePatch{Name: &name, UserClass: &class})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatchProfileNoFields(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	require.NoError(t, repo.PatchProfile(context.Background(), "stu-1", models.ProfilePatch{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow("1", "a@example.com", "hash", "A", "student", "Class 7", "R1", nil, "", 0, "Banana Sprout", 0, 0, 0, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE role = $1 AND user_class = $2 ORDER BY name ASC, id ASC LIMIT 20 OFFSET 0")).
		WithArgs(models.RoleStudent, models.Class7).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1 AND user_class = $2")).WillReturnRows(countRows)

	users, total, err := repo.ListStudents(context.Background(), models.StudentFilter{Class: models.Class7})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTopStudentsOrdering(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1 ORDER BY credits DESC, created_at ASC, id ASC LIMIT $2")).
		WithArgs(models.RoleStudent, 10).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := repo.TopStudents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxCommitsAndRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	tx := NewTxManager(db)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET rank = $2 WHERE id = $1")).
		WithArgs("stu-1", "Bronze").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		return repo.SetRank(ctx, "stu-1", "Bronze")
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	sentinel := assert.AnError
	err = tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := repo.Delete(ctx, "stu-1"); err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
