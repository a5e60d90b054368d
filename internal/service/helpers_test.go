package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/dto"
	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrFloat(v float64) *float64 {
	return &v
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type classroomFixture struct {
	teacher    models.User
	studentA   models.User
	studentB   models.User
	assignment models.Assignment
}

func seedClassroom(t *testing.T, db *gorm.DB) classroomFixture {
	t.Helper()
	fixture := classroomFixture{
		teacher:  models.User{Username: "teacher_math", FullName: "Mr. Anderson", Role: "teacher"},
		studentA: models.User{Username: "student1", FullName: "Timmy Turner", Role: "student"},
		studentB: models.User{Username: "student2", FullName: "Jimmy Neutron", Role: "student"},
		assignment: models.Assignment{
			CourseID:    1,
			Title:       "Homework 1: Add Fractions",
			Description: "Solve page 10-12 in your textbook.",
			DueDate:     time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC),
		},
	}
	require.NoError(t, db.Create(&fixture.teacher).Error)
	require.NoError(t, db.Create(&fixture.studentA).Error)
	require.NoError(t, db.Create(&fixture.studentB).Error)
	require.NoError(t, db.Create(&fixture.assignment).Error)
	return fixture
}

func (f classroomFixture) teacherActor() Actor {
	return Actor{ID: f.teacher.ID, Role: identity.RoleTeacher}
}

func (f classroomFixture) studentActor(user models.User) Actor {
	return Actor{ID: user.ID, Role: identity.RoleStudent}
}

type recordingActivity struct {
	entries []ActivityEntry
	err     error
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if r.err != nil {
		return dto.ActivityResponse{}, r.err
	}
	r.entries = append(r.entries, entry)
	return dto.ActivityResponse{Action: entry.Action}, nil
}

type recordingEvents struct {
	events []SubmissionEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, event SubmissionEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingEvents) Channel() string { return "test:submissions" }

func (r *recordingEvents) Subject() string { return "test.submissions" }
