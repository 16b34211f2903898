package user

// User mirrors the `users` table. Mobile is optional; the original
// storefront accepted either email or mobile at sign-in.
type User struct {
	ID        int    `json:"userId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile,omitempty"`
	Password  string `json:"password,omitempty"`
	Image     string `json:"image,omitempty"`
	IsAdmin   bool   `json:"isAdmin,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

func sanitizeUser(u User) User {
	u.Password = ""
	return u
}
