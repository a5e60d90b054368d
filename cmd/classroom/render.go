package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/noah-isme/classroom-api/internal/workflow"
)

func render(out io.Writer, surface workflow.Surface) {
	switch s := surface.(type) {
	case *workflow.StudentSurface:
		renderStudent(out, s)
	case *workflow.TeacherSurface:
		renderTeacher(out, s)
	default:
		fmt.Fprintln(out, "nothing loaded")
	}
}

func renderHeader(out io.Writer, surface workflow.Surface) {
	assignment := surface.Assignment()
	fmt.Fprintf(out, "%s\n", assignment.Title)
	due := assignment.DueDate.Local().Format("Mon 02 Jan 2006 15:04")
	if surface.Overdue() {
		due += " (overdue)"
	}
	fmt.Fprintf(out, "Due: %s  Max score: %d\n", due, assignment.EffectiveMaxScore())
	if description := strings.TrimSpace(assignment.Description); description != "" {
		fmt.Fprintf(out, "\n%s\n", description)
	}
	fmt.Fprintln(out)
}

func renderStudent(out io.Writer, s *workflow.StudentSurface) {
	renderHeader(out, s)
	fmt.Fprintf(out, "Status: %s\n", s.StatusBadge())
	if draft := s.Draft(); draft != "" {
		fmt.Fprintf(out, "Your work:\n  %s\n", strings.ReplaceAll(draft, "\n", "\n  "))
	}
	if feedback := s.Feedback(); feedback != "" {
		fmt.Fprintf(out, "Feedback: %s\n", feedback)
	}
	if s.CanTurnIn() {
		fmt.Fprintf(out, "Next: %s\n", s.TurnInLabel())
	}
}

func renderTeacher(out io.Writer, t *workflow.TeacherSurface) {
	renderHeader(out, t)
	roster := t.Roster()
	if len(roster) == 0 {
		fmt.Fprintln(out, "No submissions yet.")
		return
	}
	fmt.Fprintf(out, "%-6s %-24s %s\n", "ID", "Student", "Status")
	for _, submission := range roster {
		name := submission.Student.FullName
		if name == "" {
			name = fmt.Sprintf("student #%d", submission.StudentID)
		}
		fmt.Fprintf(out, "%-6d %-24s %s\n", submission.ID, name, t.RosterLabel(submission))
	}
}
