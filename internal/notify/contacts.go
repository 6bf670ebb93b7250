// internal/notify/contacts.go
package notify

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"
)

type Contact struct {
	Name  string
	Email string
	Phone string
}

// ContactDirectory resolves a notification recipient to delivery addresses.
// A missing recipient is reported as a NotFound error.
type ContactDirectory interface {
	LookupContact(ctx context.Context, recipientType models.RecipientType, id string) (*Contact, error)
}

// SQLContactDirectory reads contacts from the users table. Contractors are
// reached through their owning user.
type SQLContactDirectory struct {
	db *sql.DB
}

func NewSQLContactDirectory(db *sql.DB) *SQLContactDirectory {
	return &SQLContactDirectory{db: db}
}

func (d *SQLContactDirectory) LookupContact(ctx context.Context, recipientType models.RecipientType, id string) (*Contact, error) {
	var query string
	switch recipientType {
	case models.RecipientContractor:
		query = `SELECT c.business_name, u.email, COALESCE(u.phone, '')
			FROM contractors c JOIN users u ON u.id = c.user_id
			WHERE c.id = $1`
	case models.RecipientCustomer:
		query = `SELECT TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')), u.email, COALESCE(u.phone, '')
			FROM users u
			WHERE u.id = $1`
	default:
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("no contact lookup for recipient type %q", recipientType))
	}

	var c Contact
	err := d.db.QueryRowContext(ctx, query, id).Scan(&c.Name, &c.Email, &c.Phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewResourceNotFoundError(string(recipientType), id)
		}
		return nil, apperrors.NewDatabaseQueryFailedError("lookup contact", err)
	}
	return &c, nil
}
