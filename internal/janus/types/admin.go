package types

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	AdminID   string `json:"admin_id"`
	Username  string `json:"username"`
	Superuser bool   `json:"superuser"`
}

type GrantRequest struct {
	AdminID string `json:"admin_id"`
}

type AdminRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Superuser bool   `json:"superuser"`
}

type AdminResponse struct {
	AdminID   string `json:"admin_id"`
	Username  string `json:"username"`
	Superuser bool   `json:"superuser"`
}
