// Package transport defines the wire payloads exchanged with the backend
// REST API and the parsing of its error bodies.
package transport

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenVerifyRequest struct {
	Token string `json:"token"`
}

type TokenRefreshRequest struct {
	Refresh string `json:"refresh"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email"`
	OTPCode string `json:"otp_code"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	OTPCode   string `json:"otp_code"`
}

type PasswordResetConfirmRequest struct {
	Email        string `json:"email"`
	OTPCode      string `json:"otp_code"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

type ChangePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	NewPassword2 string `json:"new_password2"`
}

type GoogleTokenRequest struct {
	IDToken  string `json:"id_token"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type ProfileUpdateRequest struct {
	FullName string      `json:"full_name"`
	Profile  ProfileBody `json:"profile"`
}

// ProfileBody mirrors the nested profile serializer. DateOfBirth is a
// pointer so an empty value serializes as null rather than "".
type ProfileBody struct {
	Bio         string  `json:"bio"`
	Education   string  `json:"education"`
	PhoneNumber string  `json:"phone_number"`
	Country     string  `json:"country"`
	DateOfBirth *string `json:"date_of_birth"`
}

type SaveScholarshipRequest struct {
	Scholarship int64 `json:"scholarship"`
}
