package domain

// Credential store slot names. The tokens are opaque strings; the client
// never inspects their contents, only their presence and the server verdict.
const (
	SlotAuthToken    = "authToken"
	SlotRefreshToken = "refreshToken"
)

// TokenPair is the credential pair issued by the backend. Either half may be
// absent depending on the flow that produced it.
type TokenPair struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

// Session is the client-side view of the current authentication state.
// Authenticated is true only when User was derived from a token that passed
// server-side verification during this run.
type Session struct {
	User          *User
	Authenticated bool
}
