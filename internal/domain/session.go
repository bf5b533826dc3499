package domain

// Session is the identity of the person operating the client. Every
// component that needs to know "who is looking" receives a Session
// explicitly instead of reading ambient globals, and the API client
// stamps requests with its UserID.
type Session struct {
	UserID   int    `json:"user_id"`
	UserName string `json:"user_name"`
	Role     Role   `json:"role"`
}

// IsManager reports whether the session belongs to a manager.
func (s Session) IsManager() bool { return s.Role == RoleManager }
