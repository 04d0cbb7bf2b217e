package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/classquest-api/internal/models"
	"github.com/noah-isme/classquest-api/internal/repository"
)

// memDB is a map-backed stand-in for the Postgres schema shared by the fakes below.
type memDB struct {
	mu            sync.Mutex
	seq           int
	clock         time.Time
	users         map[string]*models.User
	courses       map[string]*models.Course
	chapters      map[string]*models.Chapter
	completions   []models.ChapterCompletion
	enrollments   map[string]*models.Enrollment
	tests         map[string]*models.Test
	results       []models.TestResult
	announcements map[string]*models.Announcement
	exportJobs    map[string]*models.ExportJob
}

func newMemDB() *memDB {
	return &memDB{
		clock:         time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		users:         map[string]*models.User{},
		courses:       map[string]*models.Course{},
		chapters:      map[string]*models.Chapter{},
		enrollments:   map[string]*models.Enrollment{},
		tests:         map[string]*models.Test{},
		announcements: map[string]*models.Announcement{},
		exportJobs:    map[string]*models.ExportJob{},
	}
}

func (db *memDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memDB) now() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

type fakeTx struct{ calls int }

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(ctx context.Context) { f.calls++ }

// users

type memUsers struct{ db *memDB }

func (r memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, user := range r.db.users {
		if user.Email == strings.ToLower(email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.db.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	if user.ID == "" {
		user.ID = r.db.nextID("user")
	}
	user.CreatedAt = r.db.now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.db.users[user.ID] = &clone
	return nil
}

func (r memUsers) SetupRole(ctx context.Context, id string, role models.UserRole, name, rank string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role, user.Name, user.Rank = role, name, rank
	user.Credits, user.TotalTestsCompleted, user.TotalCoursesCreated, user.TotalStudentsEnrolled = 0, 0, 0, 0
	return nil
}

func (r memUsers) UpdateExtendedProfile(ctx context.Context, id, registrationID string, dob *time.Time, gender string, class models.ClassLabel) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.RegistrationID, user.DateOfBirth, user.Gender, user.UserClass = registrationID, dob, gender, class
	return nil
}

func (r memUsers) PatchProfile(ctx context.Context, id string, patch models.ProfilePatch) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.UserClass != nil {
		user.UserClass = *patch.UserClass
	}
	if patch.RegistrationID != nil {
		user.RegistrationID = *patch.RegistrationID
	}
	return nil
}

func (r memUsers) ApplyStudentProgress(ctx context.Context, id string, creditsDelta, testsDelta int) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	user.Credits += creditsDelta
	if user.Credits < 0 {
		user.Credits = 0
	}
	user.TotalTestsCompleted += testsDelta
	clone := *user
	return &clone, nil
}

func (r memUsers) SetRank(ctx context.Context, id, rank string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Rank = rank
	return nil
}

func (r memUsers) AdjustTeacherCounters(ctx context.Context, id string, coursesDelta, studentsDelta int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	user, ok := r.db.users[id]
	if !ok {
		return nil
	}
	user.TotalCoursesCreated = maxZero(user.TotalCoursesCreated + coursesDelta)
	user.TotalStudentsEnrolled = maxZero(user.TotalStudentsEnrolled + studentsDelta)
	return nil
}

func (r memUsers) RecountTeacherCounters(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var changed int64
	for _, user := range r.db.users {
		if user.Role != models.RoleTeacher {
			continue
		}
		courses, students := 0, 0
		for _, course := range r.db.courses {
			if course.TeacherID != user.ID {
				continue
			}
			courses++
			for _, enrollment := range r.db.enrollments {
				if enrollment.CourseID == course.ID {
					students++
				}
			}
		}
		if courses != user.TotalCoursesCreated || students != user.TotalStudentsEnrolled {
			changed++
		}
		user.TotalCoursesCreated, user.TotalStudentsEnrolled = courses, students
	}
	return changed, nil
}

func (r memUsers) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.User
	for _, user := range r.db.users {
		if user.Role == role {
			out = append(out, *user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memUsers) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.User, int, error) {
	all, _ := r.ListByRole(ctx, models.RoleStudent)
	var matched []models.User
	for _, user := range all {
		if filter.Class != "" && user.UserClass != filter.Class {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Name), needle) && !strings.Contains(user.Email, needle) {
				continue
			}
		}
		matched = append(matched, user)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(matched) {
		return []models.User{}, len(matched), nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r memUsers) TopStudents(ctx context.Context, limit int) ([]models.User, error) {
	students, _ := r.ListByRole(ctx, models.RoleStudent)
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.Credits != b.Credits {
			return a.Credits > b.Credits
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if len(students) > limit {
		students = students[:limit]
	}
	return students, nil
}

func (r memUsers) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.users, id)
	return nil
}

// courses

type memCourses struct{ db *memDB }

func (r memCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Course
	for _, course := range r.db.courses {
		if filter.TeacherID != "" && course.TeacherID != filter.TeacherID {
			continue
		}
		if filter.TargetClass != "" && course.TargetClass != filter.TargetClass {
			continue
		}
		if filter.PublishedOnly && !course.IsPublished {
			continue
		}
		out = append(out, *course)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	course, ok := r.db.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *course
	clone.EnrolledStudents = append(pq.StringArray{}, course.EnrolledStudents...)
	return &clone, nil
}

func (r memCourses) Create(ctx context.Context, course *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if course.ID == "" {
		course.ID = r.db.nextID("course")
	}
	if course.EnrolledStudents == nil {
		course.EnrolledStudents = pq.StringArray{}
	}
	course.CreatedAt = r.db.now()
	course.UpdatedAt = course.CreatedAt
	clone := *course
	r.db.courses[course.ID] = &clone
	return nil
}

func (r memCourses) Update(ctx context.Context, course *models.Course) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.courses[course.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Title, existing.Description = course.Title, course.Description
	existing.TargetClass, existing.IsPublished = course.TargetClass, course.IsPublished
	return nil
}

func (r memCourses) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.courses, id)
	return nil
}

func (r memCourses) AppendEnrolledStudent(ctx context.Context, courseID, studentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	course, ok := r.db.courses[courseID]
	if !ok {
		return sql.ErrNoRows
	}
	for _, id := range course.EnrolledStudents {
		if id == studentID {
			return nil
		}
	}
	course.EnrolledStudents = append(course.EnrolledStudents, studentID)
	return nil
}

func (r memCourses) RemoveStudentEverywhere(ctx context.Context, studentID string) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var teachers []string
	for _, course := range r.db.courses {
		kept := pq.StringArray{}
		removed := false
		for _, id := range course.EnrolledStudents {
			if id == studentID {
				removed = true
				continue
			}
			kept = append(kept, id)
		}
		if removed {
			course.EnrolledStudents = kept
			teachers = append(teachers, course.TeacherID)
		}
	}
	return teachers, nil
}

func (r memCourses) RefreshTotalLessons(ctx context.Context, courseID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	course, ok := r.db.courses[courseID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	total := 0
	for _, chapter := range r.db.chapters {
		if chapter.CourseID == courseID {
			total++
		}
	}
	course.TotalLessons = total
	return total, nil
}

func (r memCourses) RecountAll(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	ids := make([]string, 0, len(r.db.courses))
	for id := range r.db.courses {
		ids = append(ids, id)
	}
	r.db.mu.Unlock()
	for _, id := range ids {
		if _, err := r.RefreshTotalLessons(ctx, id); err != nil {
			return 0, err
		}
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, course := range r.db.courses {
		roster := pq.StringArray{}
		for _, enrollment := range r.db.enrollments {
			if enrollment.CourseID == course.ID {
				roster = append(roster, enrollment.StudentID)
			}
		}
		sort.Strings(roster)
		course.EnrolledStudents = roster
	}
	return int64(len(ids)), nil
}

// chapters

type memChapters struct{ db *memDB }

func (r memChapters) ListByCourse(ctx context.Context, courseID string) ([]models.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Chapter
	for _, chapter := range r.db.chapters {
		if chapter.CourseID == courseID {
			out = append(out, *chapter)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r memChapters) FindByID(ctx context.Context, id string) (*models.Chapter, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	chapter, ok := r.db.chapters[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *chapter
	return &clone, nil
}

func (r memChapters) NextOrder(ctx context.Context, courseID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	next := 0
	for _, chapter := range r.db.chapters {
		if chapter.CourseID == courseID && chapter.Order+1 > next {
			next = chapter.Order + 1
		}
	}
	return next, nil
}

func (r memChapters) Create(ctx context.Context, chapter *models.Chapter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if chapter.ID == "" {
		chapter.ID = r.db.nextID("chapter")
	}
	chapter.CreatedAt = r.db.now()
	chapter.UpdatedAt = chapter.CreatedAt
	clone := *chapter
	r.db.chapters[chapter.ID] = &clone
	return nil
}

func (r memChapters) Update(ctx context.Context, chapter *models.Chapter) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.chapters[chapter.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *chapter
	r.db.chapters[chapter.ID] = &clone
	return nil
}

func (r memChapters) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.chapters, id)
	return nil
}

func (r memChapters) DeleteByCourse(ctx context.Context, courseID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, chapter := range r.db.chapters {
		if chapter.CourseID == courseID {
			delete(r.db.chapters, id)
		}
	}
	return nil
}

// completions

type memCompletions struct{ db *memDB }

func (r memCompletions) Insert(ctx context.Context, completion *models.ChapterCompletion) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.completions {
		if existing.StudentID == completion.StudentID && existing.ChapterID == completion.ChapterID {
			return false, nil
		}
	}
	completion.ID = r.db.nextID("completion")
	completion.CompletedAt = r.db.now()
	r.db.completions = append(r.db.completions, *completion)
	return true, nil
}

func (r memCompletions) CountByStudentAndCourse(ctx context.Context, studentID, courseID string) (int, error) {
	counts, _ := r.CountByCourse(ctx, courseID)
	return counts[studentID], nil
}

func (r memCompletions) CountByCourse(ctx context.Context, courseID string) (map[string]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	counts := map[string]int{}
	for _, completion := range r.db.completions {
		if completion.CourseID == courseID {
			counts[completion.StudentID]++
		}
	}
	return counts, nil
}

func (r memCompletions) filter(keep func(models.ChapterCompletion) bool) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.completions[:0]
	for _, completion := range r.db.completions {
		if keep(completion) {
			kept = append(kept, completion)
		}
	}
	r.db.completions = kept
}

func (r memCompletions) DeleteByChapter(ctx context.Context, chapterID string) error {
	r.filter(func(c models.ChapterCompletion) bool { return c.ChapterID != chapterID })
	return nil
}

func (r memCompletions) DeleteByCourse(ctx context.Context, courseID string) error {
	r.filter(func(c models.ChapterCompletion) bool { return c.CourseID != courseID })
	return nil
}

func (r memCompletions) DeleteByStudent(ctx context.Context, studentID string) error {
	r.filter(func(c models.ChapterCompletion) bool { return c.StudentID != studentID })
	return nil
}

// enrollments

type memEnrollments struct{ db *memDB }

func (r memEnrollments) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.EnrollmentDetail
	for _, enrollment := range r.db.enrollments {
		if enrollment.StudentID != studentID {
			continue
		}
		detail := models.EnrollmentDetail{Enrollment: *enrollment}
		if course, ok := r.db.courses[enrollment.CourseID]; ok {
			detail.CourseTitle = course.Title
			detail.TargetClass = course.TargetClass
			detail.TotalLessons = course.TotalLessons
		}
		out = append(out, detail)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.Before(out[j].EnrolledAt) })
	return out, nil
}

func (r memEnrollments) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Enrollment
	for _, enrollment := range r.db.enrollments {
		if enrollment.CourseID == courseID {
			out = append(out, *enrollment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memEnrollments) FindByCourseAndStudent(ctx context.Context, courseID, studentID string) (*models.Enrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, enrollment := range r.db.enrollments {
		if enrollment.CourseID == courseID && enrollment.StudentID == studentID {
			clone := *enrollment
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r memEnrollments) Create(ctx context.Context, enrollment *models.Enrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.enrollments {
		if existing.CourseID == enrollment.CourseID && existing.StudentID == enrollment.StudentID {
			return repository.ErrDuplicate
		}
	}
	enrollment.ID = r.db.nextID("enrollment")
	enrollment.EnrolledAt = r.db.now()
	enrollment.UpdatedAt = enrollment.EnrolledAt
	clone := *enrollment
	r.db.enrollments[enrollment.ID] = &clone
	return nil
}

func (r memEnrollments) UpdateProgress(ctx context.Context, id string, progress int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	enrollment, ok := r.db.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	enrollment.Progress = progress
	return nil
}

func (r memEnrollments) DeleteByCourse(ctx context.Context, courseID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	removed := 0
	for id, enrollment := range r.db.enrollments {
		if enrollment.CourseID == courseID {
			delete(r.db.enrollments, id)
			removed++
		}
	}
	return removed, nil
}

func (r memEnrollments) DeleteByStudent(ctx context.Context, studentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for id, enrollment := range r.db.enrollments {
		if enrollment.StudentID == studentID {
			delete(r.db.enrollments, id)
		}
	}
	return nil
}

// tests and results

type memTests struct{ db *memDB }

func (r memTests) List(ctx context.Context, filter models.TestFilter) ([]models.Test, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Test
	for _, test := range r.db.tests {
		if filter.TeacherID != "" && test.TeacherID != filter.TeacherID {
			continue
		}
		if filter.TargetClass != "" && test.TargetClass != filter.TargetClass {
			continue
		}
		if filter.PublishedOnly && !test.IsPublished {
			continue
		}
		out = append(out, *test)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memTests) FindByID(ctx context.Context, id string) (*models.Test, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	test, ok := r.db.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *test
	clone.Questions = append(models.Questions{}, test.Questions...)
	return &clone, nil
}

func (r memTests) Create(ctx context.Context, test *models.Test) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if test.ID == "" {
		test.ID = r.db.nextID("test")
	}
	test.CreatedAt = r.db.now()
	test.UpdatedAt = test.CreatedAt
	clone := *test
	r.db.tests[test.ID] = &clone
	return nil
}

func (r memTests) Update(ctx context.Context, test *models.Test) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.tests[test.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *test
	r.db.tests[test.ID] = &clone
	return nil
}

func (r memTests) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.tests, id)
	kept := r.db.results[:0]
	for _, result := range r.db.results {
		if result.TestID != id {
			kept = append(kept, result)
		}
	}
	r.db.results = kept
	return nil
}

type memResults struct{ db *memDB }

func (r memResults) Create(ctx context.Context, result *models.TestResult) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	result.ID = r.db.nextID("result")
	result.SubmittedAt = r.db.now()
	r.db.results = append(r.db.results, *result)
	return nil
}

func (r memResults) CountByTestAndStudent(ctx context.Context, testID, studentID string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	count := 0
	for _, result := range r.db.results {
		if result.TestID == testID && result.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (r memResults) ListDetailsByTest(ctx context.Context, testID string) ([]models.TestResultDetail, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.TestResultDetail
	for _, result := range r.db.results {
		if result.TestID != testID {
			continue
		}
		detail := models.TestResultDetail{TestResult: result}
		if user, ok := r.db.users[result.StudentID]; ok {
			detail.StudentName = user.Name
			detail.StudentEmail = user.Email
			detail.RegistrationID = user.RegistrationID
			detail.StudentClass = user.UserClass
		}
		out = append(out, detail)
	}
	return out, nil
}

func (r memResults) DeleteByStudent(ctx context.Context, studentID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.results[:0]
	for _, result := range r.db.results {
		if result.StudentID != studentID {
			kept = append(kept, result)
		}
	}
	r.db.results = kept
	return nil
}

// announcements

type memAnnouncements struct{ db *memDB }

func (r memAnnouncements) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.Announcement
	for _, announcement := range r.db.announcements {
		if filter.TargetClass != "" && announcement.TargetClass != filter.TargetClass {
			continue
		}
		if filter.AuthorID != "" && announcement.AuthorID != filter.AuthorID {
			continue
		}
		out = append(out, *announcement)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (r memAnnouncements) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	announcement, ok := r.db.announcements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *announcement
	return &clone, nil
}

func (r memAnnouncements) Create(ctx context.Context, announcement *models.Announcement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	announcement.ID = r.db.nextID("announcement")
	announcement.CreatedAt = r.db.now()
	announcement.UpdatedAt = announcement.CreatedAt
	clone := *announcement
	r.db.announcements[announcement.ID] = &clone
	return nil
}

func (r memAnnouncements) Update(ctx context.Context, announcement *models.Announcement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	existing, ok := r.db.announcements[announcement.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Title, existing.Content = announcement.Title, announcement.Content
	existing.CourseID, existing.Priority = announcement.CourseID, announcement.Priority
	return nil
}

func (r memAnnouncements) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.announcements, id)
	return nil
}

// export jobs

type memExportJobs struct{ db *memDB }

func (r memExportJobs) Create(ctx context.Context, job *models.ExportJob) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job.ID = r.db.nextID("export")
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	job.CreatedAt = r.db.now()
	clone := *job
	r.db.exportJobs[job.ID] = &clone
	return nil
}

func (r memExportJobs) GetByID(ctx context.Context, id string) (*models.ExportJob, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job, ok := r.db.exportJobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (r memExportJobs) Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	job, ok := r.db.exportJobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.FilePath != nil {
		path := *params.FilePath
		job.FilePath = &path
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	return nil
}

func (r memExportJobs) ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []models.ExportJob
	for _, job := range r.db.exportJobs {
		if job.Status == models.ExportStatusQueued {
			out = append(out, *job)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func maxZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// classroom bundles the fakes with seeding helpers.
type classroom struct {
	db            *memDB
	tx            *fakeTx
	board         *fakeInvalidator
	guard         *Guard
	users         memUsers
	courses       memCourses
	chapters      memChapters
	completions   memCompletions
	enrollments   memEnrollments
	tests         memTests
	results       memResults
	announcements memAnnouncements
	exportJobs    memExportJobs
}

func newClassroom() *classroom {
	db := newMemDB()
	users := memUsers{db: db}
	return &classroom{
		db:            db,
		tx:            &fakeTx{},
		board:         &fakeInvalidator{},
		guard:         NewGuard(users),
		users:         users,
		courses:       memCourses{db: db},
		chapters:      memChapters{db: db},
		completions:   memCompletions{db: db},
		enrollments:   memEnrollments{db: db},
		tests:         memTests{db: db},
		results:       memResults{db: db},
		announcements: memAnnouncements{db: db},
		exportJobs:    memExportJobs{db: db},
	}
}

func (c *classroom) addUser(id string, role models.UserRole, class models.ClassLabel) *models.User {
	user := &models.User{
		ID:        id,
		Email:     id + "@school.test",
		Name:      strings.ToUpper(id[:1]) + id[1:],
		Role:      role,
		UserClass: class,
	}
	if role == models.RoleStudent {
		user.Rank = ComputeRank(0)
	}
	if err := c.users.Create(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}

func (c *classroom) addTeacher(id string, class models.ClassLabel) *models.User {
	return c.addUser(id, models.RoleTeacher, class)
}

func (c *classroom) addStudent(id string, class models.ClassLabel) *models.User {
	return c.addUser(id, models.RoleStudent, class)
}

func (c *classroom) addCourse(teacherID string, class models.ClassLabel, published bool) *models.Course {
	course := &models.Course{TeacherID: teacherID, Title: "Course for " + string(class), TargetClass: class, IsPublished: published}
	if err := c.courses.Create(context.Background(), course); err != nil {
		panic(err)
	}
	return course
}

func (c *classroom) addChapter(courseID string, order int) *models.Chapter {
	chapter := &models.Chapter{CourseID: courseID, Title: fmt.Sprintf("Chapter %d", order), Order: order}
	if err := c.chapters.Create(context.Background(), chapter); err != nil {
		panic(err)
	}
	if _, err := c.courses.RefreshTotalLessons(context.Background(), courseID); err != nil {
		panic(err)
	}
	return chapter
}

func (c *classroom) enroll(courseID, studentID string) *models.Enrollment {
	enrollment := &models.Enrollment{CourseID: courseID, StudentID: studentID}
	if err := c.enrollments.Create(context.Background(), enrollment); err != nil {
		panic(err)
	}
	if err := c.courses.AppendEnrolledStudent(context.Background(), courseID, studentID); err != nil {
		panic(err)
	}
	return enrollment
}

func (c *classroom) user(id string) models.User {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return *c.db.users[id]
}

func (c *classroom) course(id string) models.Course {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	return *c.db.courses[id]
}

func sampleQuestions(points ...int) []models.Question {
	questions := make([]models.Question, 0, len(points))
	for i, p := range points {
		questions = append(questions, models.Question{
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: i % models.OptionsPerQuestion,
			Points:        p,
		})
	}
	return questions
}
