// Package profile covers the authenticated account surface: reading and
// updating the profile, uploading a picture, and changing the password.
package profile

import (
	"context"
	"io"
	"path/filepath"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/api/transport"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/usecase"
)

type UseCase struct {
	api    *backend.Client
	logger *zap.Logger
}

func New(api *backend.Client, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		api:    api,
		logger: logger,
	}
}

// Get fetches the current user with the nested profile.
func (uc *UseCase) Get(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := uc.api.Get(ctx, backend.EndpointMe, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update replaces the display name and profile fields in one call.
func (uc *UseCase) Update(ctx context.Context, fullName string, p domain.Profile) (*domain.User, error) {
	body := transport.ProfileUpdateRequest{
		FullName: fullName,
		Profile: transport.ProfileBody{
			Bio:         p.Bio,
			Education:   p.Education,
			PhoneNumber: p.PhoneNumber,
			Country:     p.Country,
		},
	}
	if p.DateOfBirth != "" {
		dob := p.DateOfBirth
		body.Profile.DateOfBirth = &dob
	}

	var user domain.User
	if err := uc.api.Put(ctx, backend.EndpointUpdateProfile, body, true, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadPicture sends the profile picture as multipart form data. The nested
// serializer expects the dotted field name.
func (uc *UseCase) UploadPicture(ctx context.Context, filename string, file io.Reader) error {
	return uc.api.UploadFile(ctx, fasthttp.MethodPatch, backend.EndpointUpdateProfile,
		"profile.profile_picture", filepath.Base(filename), file, nil)
}

// ChangePassword validates locally before asking the backend, and returns
// the backend's confirmation message.
func (uc *UseCase) ChangePassword(ctx context.Context, oldPassword, newPassword, confirmPassword string) (string, error) {
	if oldPassword == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "Please enter your current password")
	}
	if err := usecase.ValidatePasswordPair(newPassword, confirmPassword, true); err != nil {
		return "", err
	}

	var resp transport.MessageResponse
	err := uc.api.Post(ctx, backend.EndpointChangePassword, transport.ChangePasswordRequest{
		OldPassword:  oldPassword,
		NewPassword:  newPassword,
		NewPassword2: confirmPassword,
	}, true, &resp)
	if err != nil {
		return "", err
	}
	if resp.Message == "" {
		resp.Message = "Password changed successfully"
	}
	return resp.Message, nil
}
