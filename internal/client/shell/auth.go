package shell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fitcoach/internal/client/session"
	"github.com/dmitrijs2005/fitcoach/internal/common"
)

// errInvalidForm marks input rejected by the shell before reaching the
// session manager; the reasons have already been printed.
var errInvalidForm = errors.New("invalid input")

// Login prompts for credentials and signs in. Empty fields are rejected
// locally.
func (s *Shell) Login(ctx context.Context) error {
	email, err := getSimpleText(s.reader, "Enter email", s.out)
	if err != nil {
		return err
	}

	password, err := getPassword(s.reader, s.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if email == "" || len(password) == 0 {
		s.println("Enter both email and password")
		return nil
	}

	remember, err := getYesNo(s.reader, "Remember me on this device?", s.out)
	if err != nil {
		return err
	}

	return s.sessions.SignIn(ctx, email, string(password), remember)
}

// Register collects the registration form, validates it and creates the
// account. Every invalid field is reported before returning.
func (s *Shell) Register(ctx context.Context) error {
	var problems []string
	report := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	name, err := getSimpleText(s.reader, "Enter name", s.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(name) == "" {
		report(errors.New("name is required"))
	}

	email, err := getSimpleText(s.reader, "Enter email", s.out)
	if err != nil {
		return err
	}
	report(ValidateEmail(email))

	password, err := getPassword(s.reader, s.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	report(ValidatePassword(string(password)))

	goalText, err := getSimpleText(s.reader, "Goal ("+goalChoices()+", empty to skip)", s.out)
	if err != nil {
		return err
	}
	var goal session.Goal
	if goalText != "" {
		g, ok := session.ParseGoal(goalText)
		if !ok {
			report(fmt.Errorf("goal must be one of %s", goalChoices()))
		}
		goal = g
	}

	height, err := s.measurement("Height (cm, optional)", "height", MinHeight, MaxHeight, "cm", report)
	if err != nil {
		return err
	}
	weight, err := s.measurement("Weight (kg, optional)", "weight", MinWeight, MaxWeight, "kg", report)
	if err != nil {
		return err
	}
	target, err := s.measurement("Target weight (kg, optional)", "target weight", MinTargetWeight, MaxTargetWeight, "kg", report)
	if err != nil {
		return err
	}

	if len(problems) > 0 {
		for _, p := range problems {
			s.println(" -", p)
		}
		return errInvalidForm
	}

	remember, err := getYesNo(s.reader, "Remember me on this device?", s.out)
	if err != nil {
		return err
	}

	return s.sessions.Register(ctx, session.Draft{
		Email:        strings.TrimSpace(email),
		Password:     string(password),
		Name:         strings.TrimSpace(name),
		Goal:         goal,
		Height:       height,
		Weight:       weight,
		TargetWeight: target,
	}, remember)
}

func (s *Shell) measurement(prompt, field string, lo, hi float64, unit string, report func(error)) (*float64, error) {
	text, err := getSimpleText(s.reader, prompt, s.out)
	if err != nil {
		return nil, err
	}
	v, verr := ParseMeasurement(field, text, lo, hi, unit)
	report(verr)
	return v, nil
}

func (s *Shell) Logout(ctx context.Context) error {
	return s.sessions.SignOut(ctx)
}

func (s *Shell) Refresh(ctx context.Context) error {
	if err := s.sessions.RefreshProfile(ctx); err != nil {
		return err
	}
	return s.Whoami(ctx)
}

func (s *Shell) Whoami(context.Context) error {
	p := s.sessions.State().Profile
	if p == nil {
		s.println("Not signed in")
		return nil
	}

	s.println("Email:  ", p.Email)
	if p.Name != "" {
		s.println("Name:   ", p.Name)
	}
	if p.Goal != "" {
		s.println("Goal:   ", string(p.Goal))
	}
	if p.Height != nil {
		s.println(fmt.Sprintf("Height:  %g cm", *p.Height))
	}
	if p.Weight != nil {
		s.println(fmt.Sprintf("Weight:  %g kg", *p.Weight))
	}
	if p.TargetWeight != nil {
		s.println(fmt.Sprintf("Target:  %g kg", *p.TargetWeight))
	}
	return nil
}

func goalChoices() string {
	choices := make([]string, 0, len(session.Goals))
	for _, g := range session.Goals {
		choices = append(choices, g.Alias())
	}
	return strings.Join(choices, ", ")
}

func displayName(p *session.Profile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
