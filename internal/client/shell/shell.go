// Package shell is the interactive front end of the fitcoach client. It
// waits for the session manager to finish bootstrapping, then offers the
// signed-out or signed-in command set depending on the session state.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/fitcoach/internal/client/session"
)

// Sessions is the part of session.Manager the shell drives.
type Sessions interface {
	State() session.State
	Subscribe(session.Listener) func()
	WaitBooted(ctx context.Context) error
	SignIn(ctx context.Context, email, password string, remember bool) error
	Register(ctx context.Context, d session.Draft, remember bool) error
	SignOut(ctx context.Context) error
	RefreshProfile(ctx context.Context) error
}

// getSimpleText, getPassword and getYesNo are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getYesNo      = GetYesNo
)

type Shell struct {
	sessions Sessions
	reader   *bufio.Reader
	out      io.Writer

	// last status announced to the user
	status session.Status
}

func New(sessions Sessions, in io.Reader, out io.Writer) *Shell {
	return &Shell{sessions: sessions, reader: bufio.NewReader(in), out: out}
}

func (s *Shell) println(a ...any) {
	fmt.Fprintln(s.out, a...)
}

// Run blocks until the session manager has booted, then runs the REPL until
// EOF, "exit" or ctx cancellation.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.sessions.WaitBooted(ctx); err != nil {
		return err
	}

	s.status = s.sessions.State().Status()
	unsubscribe := s.sessions.Subscribe(s.onStateChange)
	defer unsubscribe()

	s.println("fitcoach (type 'help' for commands)")
	if p := s.sessions.State().Profile; p != nil {
		s.println("Welcome back,", displayName(p))
	}

	return s.repl(ctx)
}

// onStateChange announces status transitions. Profile reloads and token
// rotations keep the status and are not announced.
func (s *Shell) onStateChange(st session.State) {
	status := st.Status()
	if status == s.status {
		return
	}
	s.status = status

	switch status {
	case session.StatusSignedIn:
		s.println("Signed in as", st.Profile.Email)
	case session.StatusSignedOut:
		s.println("Signed out")
	}
}

func (s *Shell) prompt() string {
	st := s.sessions.State()
	if st.Profile != nil {
		return fmt.Sprintf("fitcoach (%s)> ", st.Profile.Email)
	}
	return "fitcoach> "
}

// repl reads commands one line at a time. Commands outside the current
// state's set are reported as unavailable rather than run.
//
//	Signed out:
//	  - help           show available commands
//	  - login          sign in
//	  - register       create an account
//	  - exit | quit    leave the program
//
//	Signed in:
//	  - help           show available commands
//	  - whoami         show the profile
//	  - refresh        reload the profile from the backend
//	  - logout         sign out
//	  - exit | quit    leave the program
//
// Errors from commands are printed inline and never end the loop.
func (s *Shell) repl(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(s.out, s.prompt())
		line, err := readLine(s.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.println()
				return nil
			}
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := strings.ToLower(parts[0])

		if cmd == "exit" || cmd == "quit" {
			s.println("Bye!")
			return nil
		}

		signedIn := s.sessions.State().Status() == session.StatusSignedIn
		err = s.dispatch(ctx, cmd, signedIn)
		switch {
		case err == nil, errors.Is(err, errInvalidForm):
		case errors.Is(err, io.EOF):
			s.println()
			return nil
		default:
			s.println(MessageFor(err))
		}
	}
}

func (s *Shell) dispatch(ctx context.Context, cmd string, signedIn bool) error {
	switch cmd {
	case "help":
		if signedIn {
			s.println("Available commands: whoami, refresh, logout, exit")
		} else {
			s.println("Available commands: login, register, exit")
		}
		return nil
	}

	if signedIn {
		switch cmd {
		case "whoami":
			return s.Whoami(ctx)
		case "refresh":
			return s.Refresh(ctx)
		case "logout":
			return s.Logout(ctx)
		case "login", "register":
			s.println("Already signed in, logout first")
			return nil
		}
	} else {
		switch cmd {
		case "login":
			return s.Login(ctx)
		case "register":
			return s.Register(ctx)
		case "logout":
			// forgets a remembered session that could not be restored
			if err := s.Logout(ctx); err != nil {
				return err
			}
			s.println("Not signed in")
			return nil
		case "whoami", "refresh":
			s.println("Not signed in, login or register first")
			return nil
		}
	}

	s.println("Unknown command:", cmd)
	return nil
}

// ErrFailed is returned by Exec once the failure has been shown to the user.
var ErrFailed = errors.New("command failed")

// Exec runs a single command the way the REPL would, for non-interactive
// use. Failures are reported on the shell's output and returned as
// ErrFailed.
func (s *Shell) Exec(ctx context.Context, cmd string) error {
	if err := s.sessions.WaitBooted(ctx); err != nil {
		return err
	}

	signedIn := s.sessions.State().Status() == session.StatusSignedIn
	err := s.dispatch(ctx, strings.ToLower(cmd), signedIn)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errInvalidForm), errors.Is(err, io.EOF):
		return ErrFailed
	default:
		s.println(MessageFor(err))
		return ErrFailed
	}
}
