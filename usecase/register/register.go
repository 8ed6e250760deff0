// Package register implements the two-step registration flow: collect
// account details, verify control of the email with a one-time code, then
// finalize the account.
package register

import (
	"context"

	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/usecase"
	sessionUC "github.com/scholarhub/client/usecase/session"
)

// Step is the flow position. A failed submission never advances the step.
type Step string

const (
	StepDetails Step = "details"
	StepVerify  Step = "verify"
	StepDone    Step = "done"
)

const (
	msgCodeSent    = "Verification code sent to your email!"
	msgCodeResent  = "New verification code sent to your email!"
	msgRegistered  = "Registration successful!"
)

// Details is the first-step form input.
type Details struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Flow drives one registration attempt.
type Flow struct {
	api      *backend.Client
	sessions *sessionUC.Manager
	logger   *zap.Logger

	step    Step
	details Details
	email   string
	message string
}

// New starts a flow at the details step.
func New(api *backend.Client, sessions *sessionUC.Manager, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		api:      api,
		sessions: sessions,
		logger:   logger,
		step:     StepDetails,
	}
}

// Step reports the current flow position.
func (f *Flow) Step() Step { return f.step }

// Message returns the last success message for display.
func (f *Flow) Message() string { return f.message }

// Email returns the address the verification code was sent to.
func (f *Flow) Email() string { return f.email }

// SubmitDetails validates the form and asks the backend to dispatch a
// verification code. On success the flow advances to the verify step.
func (f *Flow) SubmitDetails(ctx context.Context, d Details) error {
	if f.step != StepDetails {
		return domain.NewError(domain.ErrCodeInvalid, "registration details were already submitted")
	}
	if d.FullName == "" {
		return domain.NewError(domain.ErrCodeInvalid, "Please enter your full name")
	}
	if err := usecase.ValidateEmail(d.Email); err != nil {
		return err
	}
	if d.Password != d.ConfirmPassword {
		return domain.NewError(domain.ErrCodeInvalid, "Passwords do not match")
	}
	if err := usecase.ValidatePassword(d.Password, false); err != nil {
		return err
	}

	var resp transport.MessageResponse
	if err := f.api.Post(ctx, backend.EndpointSendVerification, transport.EmailRequest{Email: d.Email}, false, &resp); err != nil {
		return err
	}

	f.details = d
	f.email = d.Email
	f.step = StepVerify
	f.message = resp.Message
	if f.message == "" {
		f.message = msgCodeSent
	}
	return nil
}

// SubmitCode verifies the one-time code and finalizes the account. When the
// backend issues tokens immediately they are adopted into the session.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	if f.step != StepVerify {
		return domain.NewError(domain.ErrCodeInvalid, "no verification is pending")
	}
	code = usecase.SanitizeOTP(code)
	if err := usecase.ValidateOTP(code); err != nil {
		return err
	}

	if err := f.api.Post(ctx, backend.EndpointVerifyOTP, transport.VerifyOTPRequest{Email: f.email, OTPCode: code}, false, nil); err != nil {
		return err
	}

	first, last := usecase.SplitFullName(f.details.FullName)
	var resp transport.AuthResponse
	err := f.api.Post(ctx, backend.EndpointRegister, transport.RegisterRequest{
		Email:     f.email,
		Password:  f.details.Password,
		Password2: f.details.ConfirmPassword,
		FullName:  f.details.FullName,
		FirstName: first,
		LastName:  last,
		OTPCode:   code,
	}, false, &resp)
	if err != nil {
		return err
	}

	if resp.AccessToken() != "" && f.sessions != nil {
		user := resp.User
		if user == nil {
			user = &domain.User{Email: f.email, FullName: f.details.FullName}
		}
		if _, err := f.sessions.AdoptTokens(ctx, domain.TokenPair{Access: resp.AccessToken(), Refresh: resp.Refresh}, user); err != nil {
			f.logger.Warn("failed to adopt registration tokens", zap.Error(err))
		}
	}

	f.step = StepDone
	f.message = msgRegistered
	return nil
}

// Resend re-triggers the code dispatch without changing the step.
func (f *Flow) Resend(ctx context.Context) error {
	if f.step != StepVerify {
		return domain.NewError(domain.ErrCodeInvalid, "no verification is pending")
	}
	var resp transport.MessageResponse
	if err := f.api.Post(ctx, backend.EndpointResendOTP, transport.EmailRequest{Email: f.email}, false, &resp); err != nil {
		return err
	}
	f.message = resp.Message
	if f.message == "" {
		f.message = msgCodeResent
	}
	return nil
}

// Back returns to the details step, discarding the pending verification.
func (f *Flow) Back() {
	if f.step == StepVerify {
		f.step = StepDetails
		f.email = ""
		f.message = ""
	}
}
