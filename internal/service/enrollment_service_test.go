package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

func newEnrollmentService(c *classroom) *EnrollmentService {
	return NewEnrollmentService(c.guard, c.tx, c.enrollments, c.courses, c.users, nil)
}

func TestEnrollmentServiceEnroll(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	svc := newEnrollmentService(c)

	enrollment, err := svc.Enroll(context.Background(), "ana", course.ID)
	require.NoError(t, err)
	assert.Equal(t, course.ID, enrollment.CourseID)
	assert.Equal(t, 0, enrollment.Progress)

	assert.Equal(t, []string{"ana"}, []string(c.course(course.ID).EnrolledStudents))
	assert.Equal(t, 1, c.user("teacher").TotalStudentsEnrolled)

	_, err = svc.Enroll(context.Background(), "ana", course.ID)
	assertAppError(t, err, appErrors.ErrPreconditionFailed)
	assert.Equal(t, 1, c.user("teacher").TotalStudentsEnrolled)
	assert.Len(t, c.db.enrollments, 1)
}

func TestEnrollmentServiceRejects(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class9)
	c.addStudent("newcomer", "")
	published := c.addCourse("teacher", models.Class8, true)
	draft := c.addCourse("teacher", models.Class8, false)
	svc := newEnrollmentService(c)

	_, err := svc.Enroll(context.Background(), "ana", "missing")
	assertAppError(t, err, appErrors.ErrNotFound)

	_, err = svc.Enroll(context.Background(), "ana", draft.ID)
	assertAppError(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.Enroll(context.Background(), "ben", published.ID)
	assertAppError(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.Enroll(context.Background(), "newcomer", published.ID)
	assertAppError(t, err, appErrors.ErrPreconditionFailed)

	_, err = svc.Enroll(context.Background(), "teacher", published.ID)
	assertAppError(t, err, appErrors.ErrUnauthorized)

	assert.Empty(t, c.db.enrollments)
	assert.Zero(t, c.user("teacher").TotalStudentsEnrolled)
}

func TestEnrollmentServiceListMine(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	c.addChapter(course.ID, 0)
	c.enroll(course.ID, "ana")
	svc := newEnrollmentService(c)

	rows, err := svc.ListMine(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, course.Title, rows[0].CourseTitle)
	assert.Equal(t, 1, rows[0].TotalLessons)

	rows, err = svc.ListMine(context.Background(), "ben")
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
