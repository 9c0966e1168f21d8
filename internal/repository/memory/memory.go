// Package memory provides the in-memory record store. It is the default
// backend: all records live for the lifetime of the process.
package memory

import (
	"github.com/prn-tf/devehub/internal/repository"
)

// NewStore creates an empty in-memory record store.
func NewStore() *repository.Store {
	return &repository.Store{
		Projects: NewProjectRepository(),
		Licenses: NewLicenseRepository(),
		Users:    NewUserRepository(),
	}
}
