package identity

// AuthRequest is the body of register and login.
type AuthRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned on a successful register or login.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Account describes the holder of the presented token.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
