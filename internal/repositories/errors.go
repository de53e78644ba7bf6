package repositories

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a unique relation is inserted twice.
	ErrAlreadyExists = errors.New("record already exists")
)

// normalize maps driver specific errors onto the package errors.
func normalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), mongo.IsDuplicateKeyError(err), isUniqueViolation(err):
		return ErrAlreadyExists
	}
	return err
}

// isUniqueViolation catches unique index errors from drivers whose dialector
// does not translate them.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// likePattern builds a case-insensitive LIKE pattern matching s anywhere,
// escaping LIKE wildcards with a backslash.
func likePattern(s string) string {
	var b []rune
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			b = append(b, '\\')
		}
		b = append(b, r)
	}
	return "%" + string(b) + "%"
}
