// Package console implements the interactive appointment scheduler shell.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/example/appointment-scheduler/internal/application"
	"github.com/example/appointment-scheduler/internal/calendar"
	"github.com/example/appointment-scheduler/internal/logging"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Engine is the command surface the console drives. *application.Engine
// satisfies it.
type Engine interface {
	Login(ctx context.Context, username, credential string) (application.User, error)
	Logout(ctx context.Context) error
	ApplyFilter(ctx context.Context, window calendar.Window) error
	Refresh(ctx context.Context) error
	CreateOrUpdateAppointment(ctx context.Context, input application.Appointment) (application.Appointment, []application.ConflictWarning, error)
	DeleteAppointment(ctx context.Context, id string) error
	Cache() *application.RecordCache
	Session() *application.Session
	Location() *time.Location
	Now() time.Time
	ActiveWindow() (calendar.Window, bool)
}

// Console reads commands from in and writes results to out.
type Console struct {
	engine   Engine
	in       *bufio.Reader
	out      io.Writer
	logger   *slog.Logger
	password func() (string, error)
}

// Option configures a Console.
type Option func(*Console)

// WithPasswordReader replaces the no-echo terminal prompt.
func WithPasswordReader(fn func() (string, error)) Option {
	return func(c *Console) {
		c.password = fn
	}
}

// WithLogger sets the logger used for unexpected failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// New constructs a Console.
func New(engine Engine, in io.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		logger: slog.Default(),
		password: func() (string, error) {
			pw, err := readPassword(int(os.Stdin.Fd()))
			return string(pw), err
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errQuit ends the loop after a confirmed exit.
var errQuit = errors.New("quit")

// Run processes commands until exit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.println("Appointment scheduler. Type 'help' for commands.")
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := c.prompt(c.status() + "> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.println()
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmdCtx := logging.ContextWithLogger(ctx, c.logger.With("command", strings.ToLower(fields[0])))
		if err := c.dispatch(cmdCtx, fields[0], fields[1:]); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.println()
				return nil
			}
			c.report(cmdCtx, err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, cmd string, args []string) error {
	switch strings.ToLower(cmd) {
	case "help", "?":
		c.help()
		return nil
	case "login":
		return c.login(ctx, args)
	case "logout":
		return c.logout(ctx)
	case "whoami":
		return c.whoami()
	case "month":
		return c.month(ctx, args)
	case "week":
		return c.week(ctx, args)
	case "weeks":
		return c.weeks()
	case "list", "ls":
		return c.list()
	case "customers":
		return c.customers()
	case "consultants":
		return c.consultants()
	case "add":
		return c.save(ctx, "")
	case "edit":
		if len(args) != 1 {
			return usageError("edit <appointment-id>")
		}
		return c.save(ctx, args[0])
	case "delete", "rm":
		if len(args) != 1 {
			return usageError("delete <appointment-id>")
		}
		return c.remove(ctx, args[0])
	case "export":
		if len(args) != 1 {
			return usageError("export <file.ics>")
		}
		return c.export(args[0])
	case "refresh":
		return c.refresh(ctx)
	case "exit", "quit":
		return c.exit()
	default:
		c.printf("Unknown command: %s\n", cmd)
		return nil
	}
}

func (c *Console) help() {
	if !c.engine.Session().Active() {
		c.println("Commands: login [username], help, exit")
		return
	}
	c.println(strings.Join([]string{
		"Commands:",
		"  month [YYYY-MM]     show a month (clears the week filter)",
		"  week <1-5|off>      filter the selected month by week",
		"  weeks               show the week buckets of the selected month",
		"  list                list appointments in the current view",
		"  customers           list customers",
		"  consultants         list consultants",
		"  add                 create an appointment",
		"  edit <id>           change an appointment",
		"  delete <id>         delete an appointment",
		"  export <file.ics>   write the current view as iCalendar",
		"  refresh             reload from the database",
		"  whoami              show the logged-in consultant",
		"  logout, exit",
	}, "\n"))
}

func (c *Console) status() string {
	user, ok := c.engine.Session().CurrentUser()
	if !ok {
		return "scheduler"
	}
	window, ok := c.engine.ActiveWindow()
	if !ok {
		return user.Username
	}
	return user.Username + " " + window.String()
}

type usageError string

func (u usageError) Error() string {
	return "usage: " + string(u)
}

func (c *Console) report(ctx context.Context, err error) {
	var (
		vErr  *application.ValidationError
		pErr  *application.PersistenceError
		usage usageError
	)
	switch {
	case errors.As(err, &usage):
		c.println(usage.Error())
	case errors.Is(err, application.ErrInvalidCredentials):
		c.println("Login failed: the username or password is incorrect.")
	case errors.Is(err, application.ErrSessionActive):
		c.println("Already logged in. Log out first.")
	case errors.Is(err, application.ErrUnauthorized):
		c.println("Please log in first.")
	case errors.Is(err, application.ErrNotFound):
		c.println("Appointment not found.")
	case errors.As(err, &vErr):
		c.println("Invalid input:")
		for _, line := range strings.Split(strings.TrimPrefix(vErr.Error(), "validation failed: "), "; ") {
			c.println("  " + line)
		}
	case errors.As(err, &pErr):
		c.printf("Storage error (%s). Nothing was changed.\n", pErr.Op)
		c.logger.ErrorContext(ctx, "console command failed", "error", err)
	default:
		c.printf("Error: %v\n", err)
	}
}

func (c *Console) println(args ...any) {
	fmt.Fprintln(c.out, args...)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
