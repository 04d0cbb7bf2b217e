package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/dto"
	"github.com/noah-isme/classquest-api/internal/models"
	appErrors "github.com/noah-isme/classquest-api/pkg/errors"
)

func newCourseService(c *classroom) *CourseService {
	return NewCourseService(CourseServiceParams{
		Guard:       c.guard,
		Tx:          c.tx,
		Courses:     c.courses,
		Teachers:    c.users,
		Chapters:    c.chapters,
		Completions: c.completions,
		Enrollments: c.enrollments,
		Logger:      zap.NewNop(),
	})
}

func TestCourseServiceCreateIncrementsTeacherCounter(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	svc := newCourseService(c)

	course, err := svc.Create(context.Background(), "teacher", dto.CourseRequest{Title: "Algebra", TargetClass: "8", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, models.Class8, course.TargetClass)
	assert.Equal(t, "teacher", course.TeacherID)
	assert.Equal(t, 1, c.user("teacher").TotalCoursesCreated)
	assert.Equal(t, 1, c.tx.calls)
}

func TestCourseServiceCreateRejects(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	svc := newCourseService(c)

	_, err := svc.Create(context.Background(), "ana", dto.CourseRequest{Title: "Algebra", TargetClass: "Class 8"})
	assertAppError(t, err, appErrors.ErrUnauthorized)

	_, err = svc.Create(context.Background(), "teacher", dto.CourseRequest{Title: "Algebra", TargetClass: "Class 13"})
	assertAppError(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), "", dto.CourseRequest{Title: "Algebra", TargetClass: "Class 8"})
	assertAppError(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, 0, c.user("teacher").TotalCoursesCreated)
}

func TestCourseServiceListScopesByRole(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addTeacher("other", models.Class9)
	c.addStudent("ana", models.Class8)
	c.addStudent("newcomer", "")
	own := c.addCourse("teacher", models.Class8, false)
	published := c.addCourse("teacher", models.Class8, true)
	c.addCourse("other", models.Class9, true)
	svc := newCourseService(c)

	courses, err := svc.List(context.Background(), "teacher")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.ElementsMatch(t, []string{own.ID, published.ID}, []string{courses[0].ID, courses[1].ID})

	courses, err = svc.List(context.Background(), "ana")
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, published.ID, courses[0].ID)

	courses, err = svc.List(context.Background(), "newcomer")
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.NotNil(t, courses)
}

func TestCourseServiceGetVisibility(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addTeacher("other", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class9)
	draft := c.addCourse("teacher", models.Class8, false)
	published := c.addCourse("teacher", models.Class8, true)
	svc := newCourseService(c)

	got, err := svc.Get(context.Background(), "teacher", draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)

	_, err = svc.Get(context.Background(), "other", draft.ID)
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.Get(context.Background(), "ana", draft.ID)
	assertAppError(t, err, appErrors.ErrNotFoundOrUnpublished)

	_, err = svc.Get(context.Background(), "ben", published.ID)
	assertAppError(t, err, appErrors.ErrNotFoundOrUnpublished)

	got, err = svc.Get(context.Background(), "ana", published.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)

	_, err = svc.Get(context.Background(), "ana", "missing")
	assertAppError(t, err, appErrors.ErrNotFound)
}

func TestCourseServiceUpdateRequiresOwner(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addTeacher("other", models.Class8)
	course := c.addCourse("teacher", models.Class8, false)
	svc := newCourseService(c)

	_, err := svc.Update(context.Background(), "other", course.ID, dto.CourseRequest{Title: "Hijack", TargetClass: "Class 8"})
	assertAppError(t, err, appErrors.ErrForbidden)

	updated, err := svc.Update(context.Background(), "teacher", course.ID, dto.CourseRequest{Title: "Geometry", TargetClass: "class 9", IsPublished: true})
	require.NoError(t, err)
	assert.Equal(t, "Geometry", updated.Title)
	stored := c.course(course.ID)
	assert.Equal(t, models.Class9, stored.TargetClass)
	assert.True(t, stored.IsPublished)
}

func TestCourseServiceDeleteCascades(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	keep := c.addCourse("teacher", models.Class8, true)
	chapter := c.addChapter(course.ID, 0)
	c.addChapter(keep.ID, 0)
	c.enroll(course.ID, "ana")
	c.enroll(course.ID, "ben")
	c.enroll(keep.ID, "ana")
	_, err := c.completions.Insert(context.Background(), &models.ChapterCompletion{StudentID: "ana", ChapterID: chapter.ID, CourseID: course.ID})
	require.NoError(t, err)
	require.NoError(t, c.users.AdjustTeacherCounters(context.Background(), "teacher", 2, 3))
	svc := newCourseService(c)

	require.NoError(t, svc.Delete(context.Background(), "teacher", course.ID))

	teacher := c.user("teacher")
	assert.Equal(t, 1, teacher.TotalCoursesCreated)
	assert.Equal(t, 1, teacher.TotalStudentsEnrolled)
	assert.Len(t, c.db.courses, 1)
	assert.Len(t, c.db.chapters, 1)
	assert.Len(t, c.db.enrollments, 1)
	assert.Empty(t, c.db.completions)

	err = svc.Delete(context.Background(), "teacher", course.ID)
	assertAppError(t, err, appErrors.ErrNotFound)
}
