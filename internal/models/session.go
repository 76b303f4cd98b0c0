package models

// Session is the authenticated caller of a service operation. UserID is the canonical
// identifier every stored reference is compared against.
type Session struct {
	AccountID   uint   `json:"account_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != ""
}

func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role == RoleAdmin
}

// Is reports whether the session belongs to the given canonical id
func (s *Session) Is(id string) bool {
	return s.IsAuthenticated() && id != "" && s.UserID == id
}

// Name is the label shown to other users
func (s *Session) Name() string {
	if s == nil {
		return ""
	}
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.UserID
}
