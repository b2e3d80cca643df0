package auth

// AuthError porte le message renvoyé par le fournisseur d'authentification
type AuthError struct {
	Op      string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

func newAuthError(op, message string) *AuthError {
	return &AuthError{Op: op, Message: message}
}
