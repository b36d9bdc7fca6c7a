package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/tutor_crm/internal/model"
	"github.com/Freeeeeet/tutor_crm/internal/repository"
)

// In-memory store fakes mirroring the filter semantics of the pgx
// repositories: case-insensitive substring matching, half-open time windows,
// newest-first ordering.

type fakeLessonStore struct {
	lessons map[string]*model.Lesson
}

func newFakeLessonStore() *fakeLessonStore {
	return &fakeLessonStore{lessons: make(map[string]*model.Lesson)}
}

func (f *fakeLessonStore) Create(_ context.Context, lesson *model.Lesson) error {
	cp := *lesson
	cp.CreatedAt = time.Now().UTC()
	f.lessons[lesson.ID] = &cp
	lesson.CreatedAt = cp.CreatedAt
	return nil
}

func (f *fakeLessonStore) GetByID(_ context.Context, id string) (*model.Lesson, error) {
	lesson, ok := f.lessons[id]
	if !ok {
		return nil, nil
	}
	cp := *lesson
	return &cp, nil
}

func (f *fakeLessonStore) Find(_ context.Context, filter repository.LessonFilter) ([]*model.Lesson, error) {
	var out []*model.Lesson
	for _, lesson := range f.lessons {
		if matchLesson(lesson, filter) {
			cp := *lesson
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	if filter.Skip > 0 {
		if filter.Skip >= len(out) {
			out = nil
		} else {
			out = out[filter.Skip:]
		}
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeLessonStore) Count(_ context.Context, filter repository.LessonFilter) (int64, error) {
	var n int64
	for _, lesson := range f.lessons {
		if matchLesson(lesson, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeLessonStore) CountByStatus(_ context.Context, filter repository.LessonFilter) (map[model.LessonStatus]int64, error) {
	counts := make(map[model.LessonStatus]int64)
	for _, lesson := range f.lessons {
		if matchLesson(lesson, filter) {
			counts[lesson.Status]++
		}
	}
	return counts, nil
}

func (f *fakeLessonStore) CountByType(_ context.Context, filter repository.LessonFilter) (map[model.LessonType]int64, error) {
	counts := make(map[model.LessonType]int64)
	for _, lesson := range f.lessons {
		if matchLesson(lesson, filter) {
			counts[lesson.LessonType]++
		}
	}
	return counts, nil
}

func (f *fakeLessonStore) SumDurationMinutes(_ context.Context, filter repository.LessonFilter) (int64, error) {
	var sum int64
	for _, lesson := range f.lessons {
		if matchLesson(lesson, filter) {
			sum += int64(lesson.DurationMin)
		}
	}
	return sum, nil
}

func (f *fakeLessonStore) UpdateDetails(_ context.Context, lesson *model.Lesson) error {
	stored, ok := f.lessons[lesson.ID]
	if !ok {
		return &model.NotFoundError{Entity: "lesson", ID: lesson.ID}
	}
	cp := *lesson
	now := time.Now().UTC()
	cp.UpdatedAt = &now
	cp.CreatedAt = stored.CreatedAt
	f.lessons[lesson.ID] = &cp
	return nil
}

func (f *fakeLessonStore) UpdateStatus(_ context.Context, id string, status model.LessonStatus, completedAt *time.Time) error {
	lesson, ok := f.lessons[id]
	if !ok {
		return &model.NotFoundError{Entity: "lesson", ID: id}
	}
	lesson.Status = status
	if completedAt != nil {
		lesson.CompletedAt = completedAt
	}
	now := time.Now().UTC()
	lesson.UpdatedAt = &now
	return nil
}

func matchLesson(lesson *model.Lesson, f repository.LessonFilter) bool {
	if f.TeacherID != "" && lesson.TeacherID != f.TeacherID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if lesson.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.LessonType != "" && lesson.LessonType != f.LessonType {
		return false
	}
	if f.ParticipantName != "" || f.ParticipantStudentID != "" {
		found := false
		for _, p := range lesson.Participants {
			if f.ParticipantName != "" &&
				strings.Contains(strings.ToLower(p.StudentName), strings.ToLower(f.ParticipantName)) {
				found = true
				break
			}
			if f.ParticipantStudentID != "" && p.StudentID == f.ParticipantStudentID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && lesson.ScheduledAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !lesson.ScheduledAt.Before(f.To) {
		return false
	}
	return true
}

type fakePricingStore struct {
	entries map[string]*model.PricingEntry
}

func newFakePricingStore() *fakePricingStore {
	return &fakePricingStore{entries: make(map[string]*model.PricingEntry)}
}

func (f *fakePricingStore) Create(_ context.Context, entry *model.PricingEntry) error {
	cp := *entry
	cp.CreatedAt = time.Now().UTC()
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakePricingStore) GetByID(_ context.Context, id string) (*model.PricingEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (f *fakePricingStore) FindBySubjectAndLevel(_ context.Context, subject string, level model.EducationLevel) (*model.PricingEntry, error) {
	for _, entry := range f.entries {
		if entry.IsActive && strings.EqualFold(entry.Subject, subject) && entry.EducationLevel == level {
			cp := *entry
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePricingStore) FindAnyBySubject(_ context.Context, subject string) (*model.PricingEntry, error) {
	var candidates []*model.PricingEntry
	for _, entry := range f.entries {
		if entry.IsActive && strings.EqualFold(entry.Subject, subject) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].EducationLevel < candidates[j].EducationLevel
	})
	cp := *candidates[0]
	return &cp, nil
}

func (f *fakePricingStore) SubjectAndLevelExists(_ context.Context, subject string, level model.EducationLevel, excludeID string) (bool, error) {
	for _, entry := range f.entries {
		if entry.ID == excludeID {
			continue
		}
		if entry.IsActive && strings.EqualFold(entry.Subject, subject) && entry.EducationLevel == level {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePricingStore) GetAll(_ context.Context) ([]*model.PricingEntry, error) {
	out := make([]*model.PricingEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		cp := *entry
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		return out[i].EducationLevel < out[j].EducationLevel
	})
	return out, nil
}

func (f *fakePricingStore) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, entry := range f.entries {
		if entry.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakePricingStore) Update(_ context.Context, entry *model.PricingEntry) error {
	if _, ok := f.entries[entry.ID]; !ok {
		return &model.NotFoundError{Entity: "pricing entry", ID: entry.ID}
	}
	cp := *entry
	f.entries[entry.ID] = &cp
	return nil
}

func (f *fakePricingStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.entries[id]; !ok {
		return false, nil
	}
	delete(f.entries, id)
	return true, nil
}

type fakePaymentStore struct {
	payments map[string]model.Payment
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]model.Payment)}
}

func (f *fakePaymentStore) Create(_ context.Context, payment *model.Payment) error {
	payment.CreatedAt = time.Now().UTC()
	f.payments[payment.ID] = *payment
	return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id string) (*model.Payment, error) {
	payment, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	return &payment, nil
}

func (f *fakePaymentStore) Find(_ context.Context, filter repository.PaymentFilter) ([]model.Payment, error) {
	var out []model.Payment
	for _, payment := range f.payments {
		if matchPayment(payment, filter) {
			out = append(out, payment)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentDate.After(out[j].PaymentDate)
	})
	return out, nil
}

func (f *fakePaymentStore) Count(_ context.Context, filter repository.PaymentFilter) (int64, error) {
	var n int64
	for _, payment := range f.payments {
		if matchPayment(payment, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakePaymentStore) SumAmount(_ context.Context, filter repository.PaymentFilter) (float64, error) {
	var sum float64
	for _, payment := range f.payments {
		if matchPayment(payment, filter) {
			sum += payment.Amount
		}
	}
	return sum, nil
}

func (f *fakePaymentStore) Delete(_ context.Context, id string) (bool, error) {
	if _, ok := f.payments[id]; !ok {
		return false, nil
	}
	delete(f.payments, id)
	return true, nil
}

func matchPayment(payment model.Payment, f repository.PaymentFilter) bool {
	if f.StudentName != "" &&
		!strings.Contains(strings.ToLower(payment.StudentName), strings.ToLower(f.StudentName)) {
		return false
	}
	if !f.From.IsZero() && payment.PaymentDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !payment.PaymentDate.Before(f.To) {
		return false
	}
	return true
}

type fakeStudentStore struct {
	students map[string]*model.Student
}

func newFakeStudentStore() *fakeStudentStore {
	return &fakeStudentStore{students: make(map[string]*model.Student)}
}

func (f *fakeStudentStore) Create(_ context.Context, student *model.Student) error {
	cp := *student
	cp.CreatedAt = time.Now().UTC()
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentStore) GetByID(_ context.Context, id string) (*model.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, nil
	}
	cp := *student
	return &cp, nil
}

func (f *fakeStudentStore) NameExists(_ context.Context, fullName, excludeID string) (bool, error) {
	for _, student := range f.students {
		if student.ID != excludeID && strings.EqualFold(student.FullName, fullName) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentStore) FindByName(ctx context.Context, name string) ([]*model.Student, error) {
	return f.Find(ctx, repository.StudentFilter{Search: name})
}

func (f *fakeStudentStore) FindExactActive(_ context.Context, fullName string) ([]*model.Student, error) {
	var out []*model.Student
	for _, student := range f.students {
		if student.IsActive && strings.EqualFold(student.FullName, fullName) {
			cp := *student
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStudentStore) Find(_ context.Context, filter repository.StudentFilter) ([]*model.Student, error) {
	var out []*model.Student
	for _, student := range f.students {
		if filter.ActiveOnly && !student.IsActive {
			continue
		}
		if filter.Search != "" &&
			!strings.Contains(strings.ToLower(student.FullName), strings.ToLower(filter.Search)) {
			continue
		}
		if filter.EducationLevel != "" && student.EducationLevel != filter.EducationLevel {
			continue
		}
		cp := *student
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (f *fakeStudentStore) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, student := range f.students {
		if student.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeStudentStore) Update(_ context.Context, student *model.Student) error {
	if _, ok := f.students[student.ID]; !ok {
		return &model.NotFoundError{Entity: "student", ID: student.ID}
	}
	cp := *student
	now := time.Now().UTC()
	cp.UpdatedAt = &now
	f.students[student.ID] = &cp
	return nil
}

func (f *fakeStudentStore) SetActive(_ context.Context, id string, active bool) error {
	student, ok := f.students[id]
	if !ok {
		return &model.NotFoundError{Entity: "student", ID: id}
	}
	student.IsActive = active
	return nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	cp := *user
	cp.CreatedAt = time.Now().UTC()
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	user, err := f.GetByUsername(ctx, username)
	return user != nil, err
}

func (f *fakeUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	for _, user := range f.users {
		if user.Email != "" && strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Find(_ context.Context, filter repository.UserFilter) ([]*model.User, error) {
	var out []*model.User
	for _, user := range f.users {
		if filter.Role != "" && user.Role != filter.Role {
			continue
		}
		if filter.Status != "" && user.Status != filter.Status {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(user.Username), needle) &&
				!strings.Contains(strings.ToLower(user.FirstName), needle) &&
				!strings.Contains(strings.ToLower(user.LastName), needle) {
				continue
			}
		}
		cp := *user
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUserStore) CountByRole(_ context.Context, role model.Role, status model.UserStatus) (int64, error) {
	var n int64
	for _, user := range f.users {
		if user.Role == role && (status == "" || user.Status == status) {
			n++
		}
	}
	return n, nil
}

func (f *fakeUserStore) SetStatus(_ context.Context, id string, status model.UserStatus) error {
	user, ok := f.users[id]
	if !ok {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	user.Status = status
	return nil
}

func (f *fakeUserStore) SetPassword(_ context.Context, id, hashedPassword string) error {
	user, ok := f.users[id]
	if !ok {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	user.HashedPassword = hashedPassword
	return nil
}

func (f *fakeUserStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	user, ok := f.users[id]
	if !ok {
		return &model.NotFoundError{Entity: "user", ID: id}
	}
	user.LastLogin = &at
	return nil
}
