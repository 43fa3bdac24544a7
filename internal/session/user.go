package session

import "fmt"

// User is the identity of the logged-in account as reported by the auth
// endpoints. It is handed to the chat controller as read-only context.
type User struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	ProfilePic string `json:"profile_pic,omitempty"`
	Location   string `json:"location,omitempty"`
}

// Anonymous reports whether no account is attached.
func (u User) Anonymous() bool {
	return u.ID == 0
}

func (u User) String() string {
	if u.Anonymous() {
		return "(not logged in)"
	}
	if u.FullName == "" {
		return u.Email
	}
	return fmt.Sprintf("%s <%s>", u.FullName, u.Email)
}
