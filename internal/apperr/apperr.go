// Package apperr traduit les erreurs métier en réponses JSON {"error": "..."}.
package apperr

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classe une erreur selon le code HTTP qu'elle doit produire
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindIntegration
)

// Error porte un message affichable et sa catégorie
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }

// Integration enveloppe l'échec d'un collaborateur externe (stockage, paiement, auth).
// Le message du collaborateur est renvoyé tel quel au client.
func Integration(err error) *Error {
	return &Error{Kind: KindIntegration, Message: err.Error(), Err: err}
}

// Status retourne le code HTTP associé à err
func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond écrit err sous la forme {"error": "..."} avec le bon code
func Respond(c *gin.Context, err error) {
	status := Status(err)

	var e *Error
	message := "Erreur interne du serveur"
	if errors.As(err, &e) {
		message = e.Message
	}
	if status == http.StatusInternalServerError {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
