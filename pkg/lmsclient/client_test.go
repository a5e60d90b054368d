package lmsclient

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/database"
	"github.com/noah-isme/classroom-api/internal/handler"
	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/middleware"
	"github.com/noah-isme/classroom-api/internal/models"
	"github.com/noah-isme/classroom-api/internal/repository"
	"github.com/noah-isme/classroom-api/internal/router"
	"github.com/noah-isme/classroom-api/internal/service"
	"github.com/noah-isme/classroom-api/internal/workflow"
	"github.com/noah-isme/classroom-api/pkg/ai"
)

const secret = "client-secret"

type testServer struct {
	url        string
	assignment models.Assignment
	teacher    models.User
	student    models.User
}

func startServer(t *testing.T) testServer {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	teacher := models.User{Username: "teacher_math", FullName: "Mr. Anderson", Role: "teacher"}
	student := models.User{Username: "student1", FullName: "Timmy Turner", Role: "student"}
	require.NoError(t, db.Create(&teacher).Error)
	require.NoError(t, db.Create(&student).Error)
	assignment := models.Assignment{CourseID: 1, Title: "Grade 5 Math: Fractions", DueDate: time.Now().Add(48 * time.Hour)}
	require.NoError(t, db.Create(&assignment).Error)

	validate := validator.New(validator.WithRequiredStructEnabled())
	log := zerolog.Nop()
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	router.Register(app, config.Config{AppName: "Classroom", JWTSecret: secret}, router.Dependencies{
		AssignmentHandler: handler.NewAssignmentHandler(service.NewAssignmentService(assignments, nil, time.Minute, log), log),
		SubmissionHandler: handler.NewSubmissionHandler(service.NewSubmissionService(service.SubmissionServiceDeps{
			Submissions: submissions,
			Assignments: assignments,
			Validator:   validate,
			Logger:      log,
		}), log),
		GradingHandler: handler.NewGradingHandler(service.NewGradingService(service.GradingServiceDeps{
			Submissions: submissions,
			Validator:   validate,
			Logger:      log,
		}), log),
		AssistHandler: handler.NewAssistHandler(service.NewAssistService(ai.NewRuleAssistant(), assignments, submissions, validate, log), log),
		JWTMiddleware: middleware.JWTProtected(secret),
		AssistLimiter: func(c *fiber.Ctx) error { return c.Next() },
	})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(listener) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return testServer{
		url:        "http://" + listener.Addr().String(),
		assignment: assignment,
		teacher:    teacher,
		student:    student,
	}
}

func (s testServer) clientFor(t *testing.T, user models.User) (*Client, identity.Context) {
	t.Helper()
	role, err := identity.ParseRole(user.Role)
	require.NoError(t, err)
	token, err := middleware.SignToken(secret, user.ID, role, time.Hour)
	require.NoError(t, err)

	ident, err := identity.FromToken(token)
	require.NoError(t, err)
	return New(Config{BaseURL: s.url, Token: token, Timeout: 5 * time.Second, Logger: zerolog.Nop()}), ident
}

func TestWorkflowOverHTTP(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()

	studentClient, studentIdentity := srv.clientFor(t, srv.student)
	studentFlow := workflow.New(srv.assignment.ID, workflow.Dependencies{Identity: studentIdentity, Backend: studentClient, Assist: studentClient, Logger: zerolog.Nop()})
	_, err := studentFlow.Load(ctx)
	require.NoError(t, err)
	studentSurface, err := studentFlow.Student()
	require.NoError(t, err)
	require.Equal(t, "Assigned", studentSurface.StatusBadge())

	require.Contains(t, studentSurface.RequestHint(ctx), "common denominator")

	saved, err := studentSurface.TurnIn(ctx, "42 + 8 = 50")
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, saved.Status)
	require.Equal(t, "Submitted", studentSurface.StatusBadge())

	teacherClient, teacherIdentity := srv.clientFor(t, srv.teacher)
	teacherFlow := workflow.New(srv.assignment.ID, workflow.Dependencies{Identity: teacherIdentity, Backend: teacherClient, Assist: teacherClient, Logger: zerolog.Nop()})
	_, err = teacherFlow.Load(ctx)
	require.NoError(t, err)
	teacherSurface, err := teacherFlow.Teacher()
	require.NoError(t, err)

	roster := teacherSurface.Roster()
	require.Len(t, roster, 1)
	require.Equal(t, "Timmy Turner", roster[0].Student.FullName)

	session, err := teacherSurface.SelectSubmission(roster[0].ID)
	require.NoError(t, err)
	require.NoError(t, teacherSurface.AutoGrade(ctx))
	require.Equal(t, 85, session.StagedGrade())
	require.NoError(t, session.StageGrade(95))
	require.NoError(t, session.StageFeedback("Correct"))
	graded, err := teacherSurface.SaveGrade(ctx)
	require.NoError(t, err)
	require.Equal(t, 95, *graded.Grade)
	require.Equal(t, "95 / 100", teacherSurface.RosterLabel(teacherSurface.Roster()[0]))

	_, err = studentFlow.Load(ctx)
	require.NoError(t, err)
	studentSurface, err = studentFlow.Student()
	require.NoError(t, err)
	require.Equal(t, "Graded: 95/100", studentSurface.StatusBadge())
	require.Equal(t, "Correct", studentSurface.Feedback())
}

func TestSubmissionTextSurvivesRoundTrip(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	const answer = "1/2 < 3/4 & x > 0"
	const feedback = "Right: 3/4 > 1/2 & both < 1"

	studentClient, studentIdentity := srv.clientFor(t, srv.student)
	studentFlow := workflow.New(srv.assignment.ID, workflow.Dependencies{Identity: studentIdentity, Backend: studentClient, Logger: zerolog.Nop()})
	_, err := studentFlow.Load(ctx)
	require.NoError(t, err)
	studentSurface, err := studentFlow.Student()
	require.NoError(t, err)

	saved, err := studentSurface.TurnIn(ctx, answer)
	require.NoError(t, err)
	require.Equal(t, answer, saved.Content)

	_, err = studentFlow.Load(ctx)
	require.NoError(t, err)
	studentSurface, err = studentFlow.Student()
	require.NoError(t, err)
	require.Equal(t, answer, studentSurface.Draft())
	require.Equal(t, answer, studentSurface.Submission().Content)

	teacherClient, _ := srv.clientFor(t, srv.teacher)
	graded, err := teacherClient.Grade(ctx, saved.ID, 90, feedback)
	require.NoError(t, err)
	require.Equal(t, feedback, graded.Feedback)

	_, err = studentFlow.Load(ctx)
	require.NoError(t, err)
	studentSurface, err = studentFlow.Student()
	require.NoError(t, err)
	require.Equal(t, feedback, studentSurface.Feedback())
}

func TestClientMapsStatusesToErrorCategories(t *testing.T) {
	srv := startServer(t)
	ctx := context.Background()
	student, _ := srv.clientFor(t, srv.student)
	teacher, _ := srv.clientFor(t, srv.teacher)

	_, err := student.GetAssignment(ctx, 999)
	require.ErrorIs(t, err, models.ErrNotFound)

	_, err = student.Submit(ctx, srv.assignment.ID, srv.student.ID, "   ")
	require.ErrorIs(t, err, models.ErrValidation)

	saved, err := student.Submit(ctx, srv.assignment.ID, srv.student.ID, "1/2")
	require.NoError(t, err)

	_, err = teacher.Grade(ctx, saved.ID, 150, "")
	require.ErrorIs(t, err, models.ErrValidation)
	require.Equal(t, workflow.KindValidation, workflow.Classify(err))

	_, err = student.Grade(ctx, saved.ID, 90, "")
	require.ErrorIs(t, err, workflow.ErrWrongRole)

	_, err = teacher.Grade(ctx, saved.ID, 90, "ok")
	require.NoError(t, err)
	_, err = student.Submit(ctx, srv.assignment.ID, srv.student.ID, "again")
	require.ErrorIs(t, err, models.ErrInvalidState)

	anonymous := New(Config{BaseURL: srv.url, Logger: zerolog.Nop()})
	_, err = anonymous.ListSubmissions(ctx, srv.assignment.ID)
	require.ErrorIs(t, err, workflow.ErrUnauthenticated)
}

func TestClientReportsTransportFailures(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	client := New(Config{BaseURL: "http://" + addr, Token: "token", Timeout: time.Second, Logger: zerolog.Nop()})
	_, err = client.GetAssignment(context.Background(), 1)
	require.ErrorIs(t, err, workflow.ErrTransport)
	require.Equal(t, workflow.KindTransport, workflow.Classify(err))

	_, err = client.Hint(context.Background(), ai.HintInput{})
	require.ErrorIs(t, err, models.ErrValidation)
}
