// Package passwordreset implements the two-step forgot-password flow. No
// tokens are issued on completion; the user logs in again afterward.
package passwordreset

import (
	"context"

	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/usecase"
)

// Step is the flow position. A failed submission never advances the step.
type Step string

const (
	StepRequest Step = "request"
	StepReset   Step = "reset"
	StepDone    Step = "done"
)

const (
	msgCodeSent   = "Password reset code sent to your email!"
	msgCodeResent = "New password reset code sent to your email!"
	msgResetDone  = "Password reset successful! You can now log in with your new password."
)

// Flow drives one password reset attempt.
type Flow struct {
	api    *backend.Client
	logger *zap.Logger

	step    Step
	email   string
	message string
}

// New starts a flow at the request step.
func New(api *backend.Client, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		api:    api,
		logger: logger,
		step:   StepRequest,
	}
}

// Step reports the current flow position.
func (f *Flow) Step() Step { return f.step }

// Message returns the last success message for display.
func (f *Flow) Message() string { return f.message }

// Email returns the address the reset code was sent to.
func (f *Flow) Email() string { return f.email }

// SubmitEmail asks the backend to dispatch a reset code. On success the flow
// advances to the reset step.
func (f *Flow) SubmitEmail(ctx context.Context, email string) error {
	if f.step != StepRequest {
		return domain.NewError(domain.ErrCodeInvalid, "a reset code was already requested")
	}
	if err := usecase.ValidateEmail(email); err != nil {
		return err
	}

	var resp transport.MessageResponse
	if err := f.api.Post(ctx, backend.EndpointPasswordResetRequest, transport.EmailRequest{Email: email}, false, &resp); err != nil {
		return err
	}

	f.email = email
	f.step = StepReset
	f.message = resp.Message
	if f.message == "" {
		f.message = msgCodeSent
	}
	return nil
}

// SubmitReset validates the code and new password locally, then confirms the
// reset with the backend. All validation runs before any network call.
func (f *Flow) SubmitReset(ctx context.Context, code, newPassword, confirmPassword string) error {
	if f.step != StepReset {
		return domain.NewError(domain.ErrCodeInvalid, "no reset is pending")
	}
	code = usecase.SanitizeOTP(code)
	if err := usecase.ValidateOTP(code); err != nil {
		return err
	}
	if err := usecase.ValidatePasswordPair(newPassword, confirmPassword, true); err != nil {
		return err
	}

	var resp transport.MessageResponse
	err := f.api.Post(ctx, backend.EndpointPasswordResetConfirm, transport.PasswordResetConfirmRequest{
		Email:        f.email,
		OTPCode:      code,
		NewPassword:  newPassword,
		NewPassword2: confirmPassword,
	}, false, &resp)
	if err != nil {
		return err
	}

	f.step = StepDone
	f.message = resp.Message
	if f.message == "" {
		f.message = msgResetDone
	}
	return nil
}

// Resend re-requests a reset code without changing the step.
func (f *Flow) Resend(ctx context.Context) error {
	if f.step != StepReset {
		return domain.NewError(domain.ErrCodeInvalid, "no reset is pending")
	}
	var resp transport.MessageResponse
	if err := f.api.Post(ctx, backend.EndpointPasswordResetRequest, transport.EmailRequest{Email: f.email}, false, &resp); err != nil {
		return err
	}
	f.message = resp.Message
	if f.message == "" {
		f.message = msgCodeResent
	}
	return nil
}

// Back returns to the request step, discarding the pending reset.
func (f *Flow) Back() {
	if f.step == StepReset {
		f.step = StepRequest
		f.email = ""
		f.message = ""
	}
}
