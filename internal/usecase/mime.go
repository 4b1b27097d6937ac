package usecase

import (
	"strings"

	"github.com/zots0127/vidstore/internal/domain/entities"
)

// MimeValidator answers admit/reject for declared content types against a
// fixed allow-list. Absence from the list is rejection, never an error.
type MimeValidator struct {
	allowed map[entities.Mime]struct{}
}

// NewMimeValidator builds a validator from "type/subtype" strings.
// Malformed entries are dropped.
func NewMimeValidator(types []string) *MimeValidator {
	allowed := make(map[entities.Mime]struct{}, len(types))
	for _, t := range types {
		mtype, subtype, ok := strings.Cut(t, "/")
		if !ok || mtype == "" || subtype == "" {
			continue
		}
		allowed[entities.Mime{Type: mtype, Subtype: subtype}] = struct{}{}
	}
	return &MimeValidator{allowed: allowed}
}

// Admit reports whether the content type is on the allow-list.
func (v *MimeValidator) Admit(m entities.Mime) bool {
	_, ok := v.allowed[m]
	return ok
}
