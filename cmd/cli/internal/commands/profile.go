package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfeidau/sentiview/internal/models"
	"github.com/wolfeidau/sentiview/internal/session"
)

// ProfileCmd shows or edits the signed in user's profile.
type ProfileCmd struct {
	Show   ProfileShowCmd   `cmd:"" default:"1" help:"Show the profile"`
	Update ProfileUpdateCmd `cmd:"" help:"Update name, email or password"`
}

type ProfileShowCmd struct{}

func (p *ProfileShowCmd) Run(ctx context.Context, globals *Globals) error {
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

type ProfileUpdateCmd struct {
	Name        string `help:"New display name"`
	Email       string `help:"New email"`
	NewPassword bool   `help:"Prompt for the current and a new password"`
}

func (p *ProfileUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	a, err := newApp(ctx, globals)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.require("/profile")
	if err != nil {
		return err
	}

	update, err := p.build(a.prompt, s.User)
	if err != nil {
		return err
	}
	if update.IsEmpty() {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	err = a.session.UpdateProfile(ctx, update)
	switch {
	case errors.Is(err, session.ErrProfileUpdate):
		return err
	case err != nil:
		// the backend accepted the change, only local persistence failed
		globals.Logger.Warn().Err(err).Msg("profile updated but the new token was not saved")
	}

	user := a.session.State().User
	fmt.Fprintf(a.out, "Profile updated: %s <%s>\n", user.Name, user.Email)
	return nil
}

// build turns the flags into the fields that actually change.
func (p *ProfileUpdateCmd) build(pr *prompter, current *models.User) (models.ProfileUpdate, error) {
	var (
		update models.ProfileUpdate
		rules  []rule
	)

	if name := strings.TrimSpace(p.Name); name != "" && name != current.Name {
		update.Name = &name
	}
	if email := strings.TrimSpace(p.Email); email != "" && email != current.Email {
		rules = append(rules, validEmail("email", email))
		update.Email = &email
	}

	if p.NewPassword {
		currentPassword, err := pr.secret("Current password: ")
		if err != nil {
			return update, fmt.Errorf("failed to read password: %w", err)
		}
		newPassword, err := pr.secret("New password: ")
		if err != nil {
			return update, fmt.Errorf("failed to read password: %w", err)
		}
		confirm, err := pr.secret("Confirm new password: ")
		if err != nil {
			return update, fmt.Errorf("failed to read password: %w", err)
		}

		if err := validatePasswordChange(currentPassword, newPassword, confirm); err != nil {
			return update, err
		}
		update.CurrentPassword = &currentPassword
		update.NewPassword = &newPassword
	}

	return update, check(rules...)
}
