package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/junhee/namecard-go/internal/domain"
	"github.com/junhee/namecard-go/internal/service/database"
	"github.com/junhee/namecard-go/pkg/errors"
)

// ContactRepository persists extracted contacts. Single-shape records live
// in the Korean-side columns; the shape column tells them apart on read.
type ContactRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewContactRepository(postgres *database.PostgresService, logger *zap.Logger) *ContactRepository {
	return &ContactRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the contacts table and uniqueness guards. Partial
// indexes so empty phone/email values never collide with each other.
func (r *ContactRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id          SERIAL PRIMARY KEY,
			shape       TEXT NOT NULL DEFAULT 'single',
			name_ko     TEXT NOT NULL DEFAULT '',
			name_en     TEXT NOT NULL DEFAULT '',
			title_ko    TEXT NOT NULL DEFAULT '',
			title_en    TEXT NOT NULL DEFAULT '',
			company_ko  TEXT NOT NULL DEFAULT '',
			company_en  TEXT NOT NULL DEFAULT '',
			phone       TEXT NOT NULL DEFAULT '',
			email       TEXT NOT NULL DEFAULT '',
			address_ko  TEXT NOT NULL DEFAULT '',
			address_en  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS contacts_phone_unique
			ON contacts (phone) WHERE phone <> ''`,
		`CREATE UNIQUE INDEX IF NOT EXISTS contacts_email_unique
			ON contacts (email) WHERE email <> ''`,
	}

	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewStorageError("failed to ensure contacts schema", "schema", err)
		}
	}

	r.logger.Info("Contacts schema ready")
	return nil
}

// Create inserts a contact and returns the stored row. A duplicate phone or
// email surfaces as a conflict error so handlers answer 409.
func (r *ContactRepository) Create(ctx context.Context, contact domain.Contact) (*domain.StoredContact, error) {
	f := contact.StorageFields()

	query := `
		INSERT INTO contacts (shape, name_ko, name_en, title_ko, title_en,
		                      company_ko, company_en, phone, email, address_ko, address_en)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	stored := domain.StoredContact{
		Shape:  contact.Shape,
		Fields: f,
	}

	err := r.db.QueryRowContext(ctx, query,
		string(contact.Shape), f.NameKo, f.NameEn, f.TitleKo, f.TitleEn,
		f.CompanyKo, f.CompanyEn, f.Phone, f.Email, f.AddressKo, f.AddressEn,
	).Scan(&stored.ID, &stored.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewConflictError("contact with this phone or email already exists", "create", err)
		}
		return nil, errors.NewStorageError("failed to insert contact", "create", err)
	}

	r.logger.Info("Contact stored",
		zap.Int64("id", stored.ID),
		zap.String("shape", string(stored.Shape)),
	)
	return &stored, nil
}

// GetByID returns nil (no error) when the row does not exist.
func (r *ContactRepository) GetByID(ctx context.Context, id int64) (*domain.StoredContact, error) {
	query := `
		SELECT id, shape, name_ko, name_en, title_ko, title_en,
		       company_ko, company_en, phone, email, address_ko, address_en, created_at
		FROM contacts
		WHERE id = $1
		LIMIT 1
	`

	stored, err := scanContact(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to query contact %d", id), "get", err)
	}
	return stored, nil
}

// List returns contacts newest-first.
func (r *ContactRepository) List(ctx context.Context, limit, offset int) ([]*domain.StoredContact, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, shape, name_ko, name_en, title_ko, title_en,
		       company_ko, company_en, phone, email, address_ko, address_en, created_at
		FROM contacts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.NewStorageError("failed to list contacts", "list", err)
	}
	defer rows.Close()

	var contacts []*domain.StoredContact
	for rows.Next() {
		stored, err := scanContact(rows)
		if err != nil {
			return nil, errors.NewStorageError("failed to scan contact row", "list", err)
		}
		contacts = append(contacts, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to iterate contact rows", "list", err)
	}

	return contacts, nil
}

// Update replaces every field of the row. Returns nil when the id does not
// exist.
func (r *ContactRepository) Update(ctx context.Context, id int64, contact domain.Contact) (*domain.StoredContact, error) {
	f := contact.StorageFields()

	query := `
		UPDATE contacts
		SET shape = $2, name_ko = $3, name_en = $4, title_ko = $5, title_en = $6,
		    company_ko = $7, company_en = $8, phone = $9, email = $10,
		    address_ko = $11, address_en = $12
		WHERE id = $1
		RETURNING id, shape, name_ko, name_en, title_ko, title_en,
		          company_ko, company_en, phone, email, address_ko, address_en, created_at
	`

	stored, err := scanContact(r.db.QueryRowContext(ctx, query,
		id, string(contact.Shape), f.NameKo, f.NameEn, f.TitleKo, f.TitleEn,
		f.CompanyKo, f.CompanyEn, f.Phone, f.Email, f.AddressKo, f.AddressEn,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, errors.NewConflictError("contact with this phone or email already exists", "update", err)
		}
		return nil, errors.NewStorageError(fmt.Sprintf("failed to update contact %d", id), "update", err)
	}

	return stored, nil
}

// Delete reports whether a row was removed.
func (r *ContactRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return false, errors.NewStorageError(fmt.Sprintf("failed to delete contact %d", id), "delete", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewStorageError("failed to read delete result", "delete", err)
	}
	return affected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*domain.StoredContact, error) {
	var (
		stored domain.StoredContact
		shape  string
	)

	err := row.Scan(
		&stored.ID, &shape,
		&stored.Fields.NameKo, &stored.Fields.NameEn,
		&stored.Fields.TitleKo, &stored.Fields.TitleEn,
		&stored.Fields.CompanyKo, &stored.Fields.CompanyEn,
		&stored.Fields.Phone, &stored.Fields.Email,
		&stored.Fields.AddressKo, &stored.Fields.AddressEn,
		&stored.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	stored.Shape = domain.Shape(shape)
	return &stored, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
