package handlers

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type ErrorResult struct {
	Error string `json:"error"`
}
