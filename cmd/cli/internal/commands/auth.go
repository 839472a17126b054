package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wolfeidau/sentiview/internal/client"
	"github.com/wolfeidau/sentiview/internal/credentials"
	"github.com/wolfeidau/sentiview/internal/guard"
	"github.com/wolfeidau/sentiview/internal/session"
)

// LoginCmd signs in and stores the token.
type LoginCmd struct {
	Email         string `help:"Account email (prompted when empty)" short:"e"`
	PasswordStdin bool   `help:"Read the password from stdin"`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	view, err := a.visit(guard.LoginPath)
	if err != nil {
		return err
	}
	if view != guard.LoginPath {
		fmt.Fprintf(a.out, "Already logged in as %s\n\n", a.session.State().User.Email)
		return showDashboard(ctx, a)
	}

	email, err := a.prompt.valueOr(l.Email, "Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := readPasswordInput(a.prompt, l.PasswordStdin, "Password: ")
	if err != nil {
		return err
	}

	if err := check(required("email", email, "Email is required"), required("password", password, "Password is required")); err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		return loginError(err)
	}

	user := a.session.State().User
	fmt.Fprintf(a.out, "Logged in as %s <%s>\n", user.Name, user.Email)
	return nil
}

// RegisterCmd creates an account and signs in.
type RegisterCmd struct {
	Name          string `help:"Display name (prompted when empty)"`
	Email         string `help:"Account email (prompted when empty)" short:"e"`
	PasswordStdin bool   `help:"Read the password from stdin, without confirmation"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	view, err := a.visit("/register")
	if err != nil {
		return err
	}
	if view != "/register" {
		fmt.Fprintf(a.out, "Already logged in as %s\n\n", a.session.State().User.Email)
		return showDashboard(ctx, a)
	}

	name, err := a.prompt.valueOr(r.Name, "Name: ")
	if err != nil {
		return fmt.Errorf("failed to read name: %w", err)
	}
	email, err := a.prompt.valueOr(r.Email, "Email: ")
	if err != nil {
		return fmt.Errorf("failed to read email: %w", err)
	}

	password, err := readPasswordInput(a.prompt, r.PasswordStdin, "Password: ")
	if err != nil {
		return err
	}
	confirm := password
	if !r.PasswordStdin {
		if confirm, err = a.prompt.secret("Confirm password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}

	if err := validateRegistration(name, email, password, confirm); err != nil {
		return err
	}

	if err := a.session.Register(ctx, name, email, password); err != nil {
		if client.IsStatus(err, http.StatusBadRequest) || client.IsStatus(err, http.StatusConflict) {
			return fmt.Errorf("registration failed: %w", err)
		}
		return loginError(err)
	}

	fmt.Fprintf(a.out, "Registered and logged in as %s <%s>\n", name, email)
	return nil
}

// LogoutCmd clears the stored token.
type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	a.session.Logout()
	a.session.Wait()
	if err := a.client.ResetCookies(); err != nil {
		globals.Logger.Warn().Err(err).Msg("failed to reset cookies")
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoamiCmd prints the signed in user.
type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/profile")
	if err != nil {
		return err
	}

	printProfile(a, s)
	return nil
}

func printProfile(a *app, s session.Snapshot) {
	fmt.Fprintf(a.out, "Name:         %s\n", s.User.Name)
	fmt.Fprintf(a.out, "Email:        %s\n", s.User.Email)
	fmt.Fprintf(a.out, "ID:           %s\n", s.User.ID)
	if s.User.CreatedAt != "" {
		fmt.Fprintf(a.out, "Member since: %s\n", formatDate(s.User.CreatedAt))
	}
	if s.User.UpdatedAt != "" {
		fmt.Fprintf(a.out, "Updated:      %s\n", formatDate(s.User.UpdatedAt))
	}
	fmt.Fprintf(a.out, "Server:       %s\n", a.settings.Server)
	fmt.Fprintf(a.out, "Token:        %s\n", credentials.Fingerprint(s.Token))
	if claims, err := credentials.Decode(s.Token); err == nil {
		fmt.Fprintf(a.out, "Expires:      %s\n", claims.Expiry().Local().Format(time.RFC1123))
	}
}

func readPasswordInput(p *prompter, fromStdin bool, prompt string) (string, error) {
	var (
		password string
		err      error
	)
	if fromStdin {
		password, err = p.line("")
	} else {
		password, err = p.secret(prompt)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func loginError(err error) error {
	switch {
	case errors.Is(err, session.ErrNoTokenReceived):
		return fmt.Errorf("login failed: %w", err)
	case errors.Is(err, session.ErrProfileFetch):
		return fmt.Errorf("signed in but the profile could not be loaded, run 'sentiview logout' and try again: %w", err)
	case client.IsStatus(err, http.StatusUnauthorized):
		return errors.New("login failed: invalid email or password")
	default:
		return fmt.Errorf("login failed: %w", err)
	}
}
