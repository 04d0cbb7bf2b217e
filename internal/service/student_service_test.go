package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

func newStudentService(c *classroom) *StudentService {
	return NewStudentService(StudentServiceParams{
		Guard:       c.guard,
		Tx:          c.tx,
		Users:       c.users,
		Courses:     c.courses,
		Completions: c.completions,
		Results:     c.results,
		Enrollments: c.enrollments,
		Leaderboard: c.board,
	})
}

func TestStudentServiceListFilters(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("anton", models.Class9)
	c.addStudent("ben", models.Class8)
	svc := newStudentService(c)

	students, page, err := svc.List(context.Background(), "teacher", models.StudentFilter{Class: models.Class8})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 20, page.PageSize)

	students, _, err = svc.List(context.Background(), "teacher", models.StudentFilter{Search: "AN"})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ana", students[0].Name)

	_, _, err = svc.List(context.Background(), "ana", models.StudentFilter{})
	assertAppError(t, err, appErrors.ErrUnauthorized)
}

func TestStudentServiceUpdateProfile(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	svc := newStudentService(c)

	name := "Ana Maria"
	class := "9"
	updated, err := svc.UpdateProfile(context.Background(), "teacher", "ana", dto.StudentPatchRequest{Name: &name, UserClass: &class})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, models.Class9, updated.UserClass)
	assert.Equal(t, 1, c.board.calls)

	bad := "Class 99"
	_, err = svc.UpdateProfile(context.Background(), "teacher", "ana", dto.StudentPatchRequest{UserClass: &bad})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = svc.UpdateProfile(context.Background(), "teacher", "teacher", dto.StudentPatchRequest{Name: &name})
	assertAppError(t, err, appErrors.ErrNotFound)
	assert.Equal(t, 1, c.board.calls)
}

func TestStudentServiceDeleteCascades(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addTeacher("other", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class8)
	first := c.addCourse("teacher", models.Class8, true)
	second := c.addCourse("other", models.Class8, true)
	chapter := c.addChapter(first.ID, 0)
	c.enroll(first.ID, "ana")
	c.enroll(first.ID, "ben")
	c.enroll(second.ID, "ana")
	require.NoError(t, c.users.AdjustTeacherCounters(context.Background(), "teacher", 1, 2))
	require.NoError(t, c.users.AdjustTeacherCounters(context.Background(), "other", 1, 1))
	_, err := c.completions.Insert(context.Background(), &models.ChapterCompletion{StudentID: "ana", ChapterID: chapter.ID, CourseID: first.ID})
	require.NoError(t, err)
	require.NoError(t, c.results.Create(context.Background(), &models.TestResult{TestID: "test-x", StudentID: "ana"}))
	svc := newStudentService(c)

	require.NoError(t, svc.Delete(context.Background(), "teacher", "ana"))

	_, ok := c.db.users["ana"]
	assert.False(t, ok)
	assert.Empty(t, c.db.completions)
	assert.Empty(t, c.db.results)
	assert.Len(t, c.db.enrollments, 1)
	assert.Equal(t, []string{"ben"}, []string(c.course(first.ID).EnrolledStudents))
	assert.Empty(t, c.course(second.ID).EnrolledStudents)
	assert.Equal(t, 1, c.user("teacher").TotalStudentsEnrolled)
	assert.Equal(t, 0, c.user("other").TotalStudentsEnrolled)
	assert.Equal(t, 1, c.board.calls)

	assertAppError(t, svc.Delete(context.Background(), "teacher", "ana"), appErrors.ErrNotFound)
}
