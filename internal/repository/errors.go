// Package repository regroupe les accès ScyllaDB.
package repository

import "errors"

var (
	ErrNotFound = errors.New("enregistrement introuvable")
	ErrConflict = errors.New("enregistrement déjà existant")
)
