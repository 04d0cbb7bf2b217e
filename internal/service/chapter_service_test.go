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

func newChapterService(c *classroom) *ChapterService {
	return NewChapterService(ChapterServiceParams{
		Guard:       c.guard,
		Tx:          c.tx,
		Chapters:    c.chapters,
		Courses:     c.courses,
		Completions: c.completions,
		Enrollments: c.enrollments,
	})
}

func intPtr(v int) *int { return &v }

func TestChapterServiceCreateAppendsAndCountsLessons(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	svc := newChapterService(c)

	first, err := svc.Create(context.Background(), "teacher", course.ID, dto.ChapterRequest{Title: "Intro"})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "teacher", course.ID, dto.ChapterRequest{Title: "Next"})
	require.NoError(t, err)
	explicit, err := svc.Create(context.Background(), "teacher", course.ID, dto.ChapterRequest{Title: "Bonus", Order: intPtr(10)})
	require.NoError(t, err)

	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 10, explicit.Order)
	assert.Equal(t, 3, c.course(course.ID).TotalLessons)

	chapters, err := svc.List(context.Background(), "teacher", course.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 3)
	assert.Equal(t, []string{"Intro", "Next", "Bonus"}, []string{chapters[0].Title, chapters[1].Title, chapters[2].Title})
}

func TestChapterServiceCreateRecomputesProgress(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	chapter := c.addChapter(course.ID, 0)
	enrollment := c.enroll(course.ID, "ana")
	_, err := c.completions.Insert(context.Background(), &models.ChapterCompletion{StudentID: "ana", ChapterID: chapter.ID, CourseID: course.ID})
	require.NoError(t, err)
	require.NoError(t, c.enrollments.UpdateProgress(context.Background(), enrollment.ID, 100))
	svc := newChapterService(c)

	_, err = svc.Create(context.Background(), "teacher", course.ID, dto.ChapterRequest{Title: "Part two"})
	require.NoError(t, err)
	assert.Equal(t, 50, c.db.enrollments[enrollment.ID].Progress)
}

func TestChapterServiceDeleteDropsCompletions(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	first := c.addChapter(course.ID, 0)
	second := c.addChapter(course.ID, 1)
	enrollment := c.enroll(course.ID, "ana")
	for _, ch := range []*models.Chapter{first, second} {
		_, err := c.completions.Insert(context.Background(), &models.ChapterCompletion{StudentID: "ana", ChapterID: ch.ID, CourseID: course.ID})
		require.NoError(t, err)
	}
	svc := newChapterService(c)

	require.NoError(t, svc.Delete(context.Background(), "teacher", second.ID))
	assert.Len(t, c.db.completions, 1)
	assert.Equal(t, 1, c.course(course.ID).TotalLessons)
	assert.Equal(t, 100, c.db.enrollments[enrollment.ID].Progress)
	// credits already awarded stay with the student
	assert.Equal(t, 0, c.user("ana").Credits)
}

func TestChapterServiceSetOrderAllowsCollisions(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addTeacher("other", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	c.addChapter(course.ID, 0)
	second := c.addChapter(course.ID, 1)
	svc := newChapterService(c)

	updated, err := svc.SetOrder(context.Background(), "teacher", second.ID, dto.ChapterOrderRequest{Order: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Order)

	_, err = svc.SetOrder(context.Background(), "other", second.ID, dto.ChapterOrderRequest{Order: intPtr(3)})
	assertAppError(t, err, appErrors.ErrForbidden)

	_, err = svc.SetOrder(context.Background(), "teacher", second.ID, dto.ChapterOrderRequest{})
	assertAppError(t, err, appErrors.ErrValidation)
}

func TestChapterServiceListVisibility(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class9)
	course := c.addCourse("teacher", models.Class8, true)
	draft := c.addCourse("teacher", models.Class8, false)
	c.addChapter(course.ID, 0)
	svc := newChapterService(c)

	chapters, err := svc.List(context.Background(), "ana", course.ID)
	require.NoError(t, err)
	assert.Len(t, chapters, 1)

	_, err = svc.List(context.Background(), "ben", course.ID)
	assertAppError(t, err, appErrors.ErrNotFoundOrUnpublished)

	_, err = svc.List(context.Background(), "ana", draft.ID)
	assertAppError(t, err, appErrors.ErrNotFoundOrUnpublished)

	empty, err := svc.List(context.Background(), "teacher", draft.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestComputeProgressThroughRecompute(t *testing.T) {
	c := newClassroom()
	c.addTeacher("teacher", models.Class8)
	c.addStudent("ana", models.Class8)
	c.addStudent("ben", models.Class8)
	course := c.addCourse("teacher", models.Class8, true)
	chapters := []*models.Chapter{c.addChapter(course.ID, 0), c.addChapter(course.ID, 1), c.addChapter(course.ID, 2)}
	a := c.enroll(course.ID, "ana")
	b := c.enroll(course.ID, "ben")
	for _, ch := range chapters[:2] {
		_, err := c.completions.Insert(context.Background(), &models.ChapterCompletion{StudentID: "ana", ChapterID: ch.ID, CourseID: course.ID})
		require.NoError(t, err)
	}

	updated, err := recomputeCourseProgress(context.Background(), c.enrollments, c.completions, course.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 67, c.db.enrollments[a.ID].Progress)
	assert.Equal(t, 0, c.db.enrollments[b.ID].Progress)
}
