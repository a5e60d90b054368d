package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/noah-isme/classroom-api/internal/config"
	"github.com/noah-isme/classroom-api/internal/identity"
	"github.com/noah-isme/classroom-api/internal/workflow"
	"github.com/noah-isme/classroom-api/pkg/lmsclient"
)

const usage = `usage: classroom [flags] <command> [args]

commands:
  show <assignmentID>
  submit <assignmentID> <text...>
  hint <assignmentID> [draft...]
  grade <assignmentID> <submissionID> <score> [feedback...]
  autograde <assignmentID> <submissionID>
`

// command is a parsed invocation of the terminal client.
type command struct {
	name         string
	assignmentID uint
	submissionID uint
	score        int
	text         string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("classroom", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.BoolP("verbose", "v", false, "log requests and workflow events")
	flags.Usage = func() { fmt.Fprint(stderr, usage) }
	if err := flags.Parse(args); err != nil {
		return err
	}

	cmd, err := parseCommand(flags.Args())
	if err != nil {
		fmt.Fprint(stderr, usage)
		return err
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	ident, err := identity.FromToken(cfg.Token)
	if err != nil {
		return fmt.Errorf("read identity from token: %w", err)
	}

	client := lmsclient.New(lmsclient.Config{BaseURL: cfg.APIURL, Token: cfg.Token, Timeout: cfg.Timeout, Logger: logger})
	flow := workflow.New(cmd.assignmentID, workflow.Dependencies{
		Identity: ident,
		Backend:  client,
		Assist:   client,
		Logger:   logger,
	})

	if _, err := flow.Load(ctx); err != nil {
		return describe(err)
	}

	return execute(ctx, flow, cmd, stdout)
}

func parseCommand(args []string) (command, error) {
	if len(args) < 2 {
		return command{}, errors.New("missing command or assignment id")
	}

	cmd := command{name: args[0]}
	assignmentID, err := parseID(args[1], "assignment")
	if err != nil {
		return command{}, err
	}
	cmd.assignmentID = assignmentID
	rest := args[2:]

	switch cmd.name {
	case "show":
	case "submit":
		if len(rest) == 0 {
			return command{}, errors.New("submit needs the submission text")
		}
		cmd.text = strings.Join(rest, " ")
	case "hint":
		cmd.text = strings.Join(rest, " ")
	case "grade":
		if len(rest) < 2 {
			return command{}, errors.New("grade needs a submission id and a score")
		}
		if cmd.submissionID, err = parseID(rest[0], "submission"); err != nil {
			return command{}, err
		}
		if cmd.score, err = strconv.Atoi(rest[1]); err != nil {
			return command{}, fmt.Errorf("score must be a whole number: %q", rest[1])
		}
		cmd.text = strings.Join(rest[2:], " ")
	case "autograde":
		if len(rest) < 1 {
			return command{}, errors.New("autograde needs a submission id")
		}
		if cmd.submissionID, err = parseID(rest[0], "submission"); err != nil {
			return command{}, err
		}
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

func parseID(raw, what string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return uint(id), nil
}

func execute(ctx context.Context, flow *workflow.AssignmentWorkflow, cmd command, out io.Writer) error {
	switch cmd.name {
	case "show":
		render(out, flow.Surface())
		return nil

	case "submit":
		student, err := flow.Student()
		if err != nil {
			return describe(err)
		}
		if _, err := student.TurnIn(ctx, cmd.text); err != nil {
			return describe(err)
		}
		render(out, student)
		return nil

	case "hint":
		student, err := flow.Student()
		if err != nil {
			return describe(err)
		}
		if cmd.text != "" {
			if err := student.SetDraft(cmd.text); err != nil {
				return describe(err)
			}
		}
		fmt.Fprintf(out, "Hint: %s\n", student.RequestHint(ctx))
		return nil

	case "grade", "autograde":
		teacher, err := flow.Teacher()
		if err != nil {
			return describe(err)
		}
		session, err := teacher.SelectSubmission(cmd.submissionID)
		if err != nil {
			return describe(err)
		}
		if cmd.name == "autograde" {
			if err := teacher.AutoGrade(ctx); err != nil {
				return describe(err)
			}
		} else {
			if err := session.StageGrade(cmd.score); err != nil {
				return describe(err)
			}
			if err := session.StageFeedback(cmd.text); err != nil {
				return describe(err)
			}
		}
		if _, err := teacher.SaveGrade(ctx); err != nil {
			return describe(err)
		}
		render(out, teacher)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd.name)
}

func describe(err error) error {
	return fmt.Errorf("%s: %w", workflow.Classify(err), err)
}
