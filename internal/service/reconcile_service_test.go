package service

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classquest-api/internal/models"
)

func TestReconcileRepairsDrift(t *testing.T) {
	c := newClassroom()
	ctx := context.Background()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	first := c.addChapter(course.ID, 0)
	c.addChapter(course.ID, 1)
	enrollment := c.enroll(course.ID, "ana")
	c.enroll(course.ID, "ben")
	_, err := c.completions.Insert(ctx, &models.ChapterCompletion{StudentID: "ana", ChapterID: first.ID, CourseID: course.ID})
	require.NoError(t, err)

	// simulate drift
	c.db.users["ana"].Credits = 45
	c.db.users["ana"].Rank = RankBananaSprout
	c.db.courses[course.ID].TotalLessons = 9
	c.db.courses[course.ID].EnrolledStudents = pq.StringArray{"ghost"}
	c.db.users["teacher"].TotalCoursesCreated = 4

	svc := NewReconcileService(c.tx, c.users, c.courses, c.enrollments, c.completions, c.board, nil)
	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, report.StudentsRanked)
	assert.Equal(t, 1, report.CoursesUpdated)
	assert.Equal(t, 1, report.EnrollmentsUpdated)
	assert.Equal(t, 1, report.TeachersUpdated)
	assert.Equal(t, 1, c.tx.calls)
	assert.Equal(t, 1, c.board.calls)

	assert.Equal(t, RankSilver, c.user("ana").Rank)
	stored := c.course(course.ID)
	assert.Equal(t, 2, stored.TotalLessons)
	assert.Equal(t, []string{"ana", "ben"}, []string(stored.EnrolledStudents))
	assert.Equal(t, 50, c.db.enrollments[enrollment.ID].Progress)
	teacher := c.user("teacher")
	assert.Equal(t, 1, teacher.TotalCoursesCreated)
	assert.Equal(t, 2, teacher.TotalStudentsEnrolled)
}

func TestReconcileIsIdempotent(t *testing.T) {
	c := newClassroom()
	ctx := context.Background()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	c.addChapter(course.ID, 0)
	c.enroll(course.ID, "ana")
	svc := NewReconcileService(c.tx, c.users, c.courses, c.enrollments, c.completions, c.board, nil)

	_, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	report, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.StudentsRanked)
	assert.Zero(t, report.EnrollmentsUpdated)
	assert.Zero(t, report.TeachersUpdated)
}
