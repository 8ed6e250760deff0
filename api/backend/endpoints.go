package backend

// Backend endpoint paths, relative to the configured API base URL.
const (
	EndpointTokenVerify          = "auth/token/verify/"
	EndpointTokenRefresh         = "auth/token/refresh/"
	EndpointMe                   = "auth/me/"
	EndpointLogin                = "auth/login/"
	EndpointRegister             = "auth/register/"
	EndpointSendVerification     = "auth/send-verification-email/"
	EndpointVerifyOTP            = "auth/verify-otp/"
	EndpointResendOTP            = "auth/resend-otp/"
	EndpointPasswordResetRequest = "auth/password-reset-request/"
	EndpointPasswordResetConfirm = "auth/password-reset-confirm/"
	EndpointChangePassword       = "auth/change-password/"
	EndpointGoogleToken          = "auth/google/token/"

	EndpointScholarships  = "scholarships/"
	EndpointFilterOptions = "scholarships/filter-options/"
	EndpointSaved         = "user/saved-scholarships/"
	EndpointApplications  = "user/applications/"
	EndpointUpdateProfile = "user/users/update-profile/"
)
