package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/internal/google"
	"github.com/scholarhub/client/internal/lifecycle"
	applicationUC "github.com/scholarhub/client/usecase/application"
	"github.com/scholarhub/client/usecase/passwordreset"
	profileUC "github.com/scholarhub/client/usecase/profile"
	"github.com/scholarhub/client/usecase/register"
	savedUC "github.com/scholarhub/client/usecase/saved"
	scholarshipUC "github.com/scholarhub/client/usecase/scholarship"
)

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *app) requireAuth() error {
	if !a.sessions.Current().Authenticated {
		return domain.NewError(domain.ErrCodeUnauthorized, "please log in first (scholarhub login)")
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context) error {
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.prompt("Password")
	if err != nil {
		return err
	}
	sess, err := a.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", sess.User.DisplayName())
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *app) cmdGoogleLogin(ctx context.Context, manager *lifecycle.Manager) error {
	if !a.cfg.Google.Enabled {
		return domain.NewError(domain.ErrCodeInvalid, "Google sign-in is disabled (set ENABLE_SOCIAL_AUTH=true)")
	}

	flow, err := google.New(google.Config{
		ClientID:   a.cfg.Google.ClientID,
		ListenAddr: a.cfg.Google.ListenAddr,
		Timeout:    a.cfg.Google.Timeout,
	}, a.logger)
	if err != nil {
		return err
	}
	if err := flow.Start(); err != nil {
		return err
	}
	manager.Register("google_callback", func(context.Context) error {
		return flow.Close()
	})

	attempt, err := flow.Begin(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Open this URL in your browser to sign in with Google:")
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "  %s\n", attempt.URL)
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Waiting for the browser to finish...")

	result, err := attempt.Wait(ctx)
	if err != nil {
		return err
	}

	sess, err := a.sessions.LoginWithGoogle(ctx, result.IDToken, result.Email, result.FullName)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", sess.User.DisplayName())
	return nil
}

func (a *app) cmdRegister(ctx context.Context) error {
	flow := register.New(a.api, a.sessions, a.logger)

	fullName, err := a.prompt("Full name")
	if err != nil {
		return err
	}
	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	password, err := a.prompt("Password")
	if err != nil {
		return err
	}
	confirm, err := a.prompt("Confirm password")
	if err != nil {
		return err
	}

	if err := flow.SubmitDetails(ctx, register.Details{
		FullName:        fullName,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, flow.Message())

	for flow.Step() == register.StepVerify {
		code, err := a.prompt("Verification code (or 'resend')")
		if err != nil {
			return err
		}
		if code == "resend" {
			if err := flow.Resend(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			fmt.Fprintln(a.out, flow.Message())
			continue
		}
		if err := flow.SubmitCode(ctx, code); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
	}

	fmt.Fprintln(a.out, flow.Message())
	return nil
}

func (a *app) cmdResetPassword(ctx context.Context) error {
	flow := passwordreset.New(a.api, a.logger)

	email, err := a.prompt("Email")
	if err != nil {
		return err
	}
	if err := flow.SubmitEmail(ctx, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, flow.Message())

	for flow.Step() == passwordreset.StepReset {
		code, err := a.prompt("Reset code (or 'resend')")
		if err != nil {
			return err
		}
		if code == "resend" {
			if err := flow.Resend(ctx); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
				continue
			}
			fmt.Fprintln(a.out, flow.Message())
			continue
		}
		newPassword, err := a.prompt("New password")
		if err != nil {
			return err
		}
		confirm, err := a.prompt("Confirm new password")
		if err != nil {
			return err
		}
		if err := flow.SubmitReset(ctx, code, newPassword, confirm); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			continue
		}
	}

	fmt.Fprintln(a.out, flow.Message())
	return nil
}

func (a *app) cmdWhoami() error {
	sess := a.sessions.Current()
	if !sess.Authenticated {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>\n", sess.User.DisplayName(), sess.User.Email)
	return nil
}

func (a *app) cmdProfile(ctx context.Context, args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	uc := profileUC.New(a.api, a.logger)

	sub := "show"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "show":
		user, err := uc.Get(ctx)
		if err != nil {
			return err
		}
		a.printUser(user)
		return nil
	case "update":
		return a.profileUpdate(ctx, uc)
	case "password":
		oldPassword, err := a.prompt("Current password")
		if err != nil {
			return err
		}
		newPassword, err := a.prompt("New password")
		if err != nil {
			return err
		}
		confirm, err := a.prompt("Confirm new password")
		if err != nil {
			return err
		}
		msg, err := uc.ChangePassword(ctx, oldPassword, newPassword, confirm)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, msg)
		return nil
	case "picture":
		if len(args) < 2 {
			return fmt.Errorf("usage: scholarhub profile picture <file>")
		}
		file, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer file.Close()
		if err := uc.UploadPicture(ctx, args[1], file); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Profile picture updated.")
		return nil
	default:
		return fmt.Errorf("unknown profile subcommand %q", sub)
	}
}

func (a *app) profileUpdate(ctx context.Context, uc *profileUC.UseCase) error {
	current, err := uc.Get(ctx)
	if err != nil {
		return err
	}
	existing := domain.Profile{}
	if current.Profile != nil {
		existing = *current.Profile
	}

	edit := func(label, value string) (string, error) {
		input, err := a.prompt(fmt.Sprintf("%s [%s]", label, value))
		if err != nil {
			return "", err
		}
		if input == "" {
			return value, nil
		}
		return input, nil
	}

	fullName, err := edit("Full name", current.FullName)
	if err != nil {
		return err
	}
	existing.Bio, err = edit("Bio", existing.Bio)
	if err != nil {
		return err
	}
	existing.Education, err = edit("Education", existing.Education)
	if err != nil {
		return err
	}
	existing.PhoneNumber, err = edit("Phone number", existing.PhoneNumber)
	if err != nil {
		return err
	}
	existing.Country, err = edit("Country", existing.Country)
	if err != nil {
		return err
	}
	existing.DateOfBirth, err = edit("Date of birth (YYYY-MM-DD)", existing.DateOfBirth)
	if err != nil {
		return err
	}

	user, err := uc.Update(ctx, fullName, existing)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	a.printUser(user)
	return nil
}

func (a *app) printUser(user *domain.User) {
	fmt.Fprintf(a.out, "Name:    %s\n", user.DisplayName())
	fmt.Fprintf(a.out, "Email:   %s\n", user.Email)
	if user.Profile == nil {
		return
	}
	p := user.Profile
	if p.Bio != "" {
		fmt.Fprintf(a.out, "Bio:     %s\n", p.Bio)
	}
	if p.Education != "" {
		fmt.Fprintf(a.out, "Education: %s\n", p.Education)
	}
	if p.PhoneNumber != "" {
		fmt.Fprintf(a.out, "Phone:   %s\n", p.PhoneNumber)
	}
	if p.Country != "" {
		fmt.Fprintf(a.out, "Country: %s\n", p.Country)
	}
	if p.DateOfBirth != "" {
		fmt.Fprintf(a.out, "Born:    %s\n", p.DateOfBirth)
	}
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var f domain.Filters
	fs.StringVar(&f.Levels, "level", "", "study level")
	fs.StringVar(&f.Country, "country", "", "country name")
	fs.StringVar(&f.FieldOfStudy, "field", "", "field of study")
	fs.StringVar(&f.FundType, "fund", "", "fund type")
	fs.StringVar(&f.SponsorType, "sponsor", "", "sponsor type")
	fs.StringVar(&f.Category, "category", "", "scholarship category")
	fs.StringVar(&f.DeadlineBefore, "deadline-before", "", "deadline upper bound (YYYY-MM-DD)")
	fs.StringVar(&f.LanguageRequirement, "language", "", "language requirement")
	ordering := fs.String("ordering", "", "sort field, prefix with - for descending")
	limit := fs.Int("limit", 0, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := scholarshipUC.Query{
		Filters:  f,
		Search:   strings.Join(fs.Args(), " "),
		Ordering: *ordering,
		Limit:    *limit,
	}

	items, err := scholarshipUC.New(a.api, a.logger).List(ctx, q)
	if err != nil {
		return err
	}
	a.printScholarships(items)
	return nil
}

func (a *app) cmdShow(ctx context.Context, args []string) error {
	id, err := parseID(args, "scholarhub show <id>")
	if err != nil {
		return err
	}
	s, err := scholarshipUC.New(a.api, a.logger).Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", s.Title)
	if s.Provider != "" {
		fmt.Fprintf(a.out, "Provider: %s\n", s.Provider)
	}
	if s.CountryName != "" {
		fmt.Fprintf(a.out, "Country:  %s\n", s.CountryName)
	}
	if s.Amount != "" {
		fmt.Fprintf(a.out, "Amount:   %s\n", s.Amount)
	}
	if s.Deadline != "" {
		fmt.Fprintf(a.out, "Deadline: %s\n", s.Deadline)
	}
	if s.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", s.Description)
	}
	if s.ApplicationURL != "" {
		fmt.Fprintf(a.out, "\nApply: %s\n", s.ApplicationURL)
	}
	return nil
}

func (a *app) cmdFeatured(ctx context.Context) error {
	items, err := scholarshipUC.New(a.api, a.logger).Featured(ctx, 0)
	if err != nil {
		return err
	}
	a.printScholarships(items)
	return nil
}

func (a *app) cmdFilters(ctx context.Context) error {
	opts, err := scholarshipUC.New(a.api, a.logger).FilterOptions(ctx)
	if err != nil {
		return err
	}
	printGroup := func(name string, refs []domain.NamedRef) {
		if len(refs) == 0 {
			return
		}
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			names = append(names, ref.Name)
		}
		fmt.Fprintf(a.out, "%s: %s\n", name, strings.Join(names, ", "))
	}
	printGroup("Levels", opts.Levels)
	printGroup("Countries", opts.Countries)
	printGroup("Fields of study", opts.FieldsOfStudy)
	printGroup("Fund types", opts.FundTypes)
	printGroup("Sponsor types", opts.SponsorTypes)
	printGroup("Categories", opts.Categories)
	printGroup("Language requirements", opts.LanguageRequirements)
	return nil
}

func (a *app) cmdSave(ctx context.Context, args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	id, err := parseID(args, "scholarhub save <id>")
	if err != nil {
		return err
	}
	if _, err := savedUC.New(a.api, a.logger).Save(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved.")
	return nil
}

func (a *app) cmdUnsave(ctx context.Context, args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	id, err := parseID(args, "scholarhub unsave <id>")
	if err != nil {
		return err
	}
	if err := savedUC.New(a.api, a.logger).RemoveByScholarship(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Removed.")
	return nil
}

func (a *app) cmdSaved(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	records, err := savedUC.New(a.api, a.logger).List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No saved scholarships.")
		return nil
	}
	for _, record := range records {
		title := fmt.Sprintf("scholarship #%d", record.Scholarship.ID)
		if record.Scholarship.Detail != nil {
			title = record.Scholarship.Detail.Title
		}
		fmt.Fprintf(a.out, "%6d  %s\n", record.Scholarship.ID, title)
	}
	return nil
}

func (a *app) cmdApplications(ctx context.Context) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	records, err := applicationUC.New(a.api, a.logger).List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No applications.")
		return nil
	}
	for _, record := range records {
		title := fmt.Sprintf("scholarship #%d", record.Scholarship.ID)
		if record.Scholarship.Detail != nil {
			title = record.Scholarship.Detail.Title
		}
		status := record.Status
		if status == "" {
			status = "submitted"
		}
		fmt.Fprintf(a.out, "%6d  %-12s  %s\n", record.ID, status, title)
	}
	return nil
}

func (a *app) printScholarships(items []domain.Scholarship) {
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No scholarships found.")
		return
	}
	for _, s := range items {
		deadline := s.Deadline
		if deadline == "" {
			deadline = "-"
		}
		country := s.CountryName
		if country == "" {
			country = "-"
		}
		fmt.Fprintf(a.out, "%6d  %-10s  %-16s  %s\n", s.ID, deadline, country, s.Title)
	}
}

func parseID(args []string, usageLine string) (int64, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: %s", usageLine)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}
