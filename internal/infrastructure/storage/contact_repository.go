// Package storage persists contacts and prospects in Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ProspectPulse/internal/domain"
	"ProspectPulse/internal/identity"
	"ProspectPulse/internal/ports"
)

// psql builds statements with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var contactColumns = []string{
	"id", "team_id", "email", "profile_url", "full_name", "title",
	"company_name", "company_domain", "phone", "source", "source_id",
	"connection_strength", "interaction_count", "last_interaction_at",
	"last_sync_at", "created_at", "updated_at",
}

// ContactRepository implements ports.ContactRepository over Postgres. The
// normalized identity keys live in dedicated columns written on every
// insert/update, so point lookups never compare raw strings.
type ContactRepository struct {
	db *sql.DB
}

var _ ports.ContactRepository = (*ContactRepository)(nil)

// NewContactRepository wires a sql.DB implementation.
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// FindByEmail looks a contact up by normalized email.
func (r *ContactRepository) FindByEmail(ctx context.Context, teamID, normalizedEmail string) (*domain.Contact, error) {
	return r.findOne(ctx, sq.Eq{"team_id": teamID, "email_normalized": normalizedEmail})
}

// FindByProfileURL looks a contact up by normalized profile URL.
func (r *ContactRepository) FindByProfileURL(ctx context.Context, teamID, normalizedURL string) (*domain.Contact, error) {
	return r.findOne(ctx, sq.Eq{"team_id": teamID, "profile_url_normalized": normalizedURL})
}

// FindByNameCompany matches case-insensitively on full name and company name.
// Rows come back ordered by (created_at, id) so ambiguous duplicates resolve
// deterministically: the oldest record first.
func (r *ContactRepository) FindByNameCompany(ctx context.Context, teamID, fullName, companyName string) ([]domain.Contact, error) {
	query, args, err := psql.Select(contactColumns...).
		From("contacts").
		Where(sq.Eq{"team_id": teamID}).
		Where(sq.Expr("lower(full_name) = lower(?)", fullName)).
		Where(sq.Expr("lower(company_name) = lower(?)", companyName)).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build name+company query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query by name+company: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return contacts, nil
}

// GetByID fetches one contact by primary key within a team.
func (r *ContactRepository) GetByID(ctx context.Context, teamID, id string) (*domain.Contact, error) {
	return r.findOne(ctx, sq.Eq{"team_id": teamID, "id": id})
}

// ListByTeam returns up to limit contacts ordered by descending connection
// strength, feeding the AI matcher its candidate pool.
func (r *ContactRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]domain.Contact, error) {
	builder := psql.Select(contactColumns...).
		From("contacts").
		Where(sq.Eq{"team_id": teamID}).
		OrderBy("connection_strength DESC", "created_at", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query team contacts: %w", err)
	}
	defer rows.Close()

	var contacts []domain.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return contacts, nil
}

// Insert stores a first-sighting contact together with its normalized keys.
func (r *ContactRepository) Insert(ctx context.Context, contact domain.Contact) error {
	query, args, err := psql.Insert("contacts").
		Columns("id", "team_id", "email", "email_normalized", "profile_url",
			"profile_url_normalized", "full_name", "title", "company_name",
			"company_domain", "phone", "source", "source_id",
			"connection_strength", "interaction_count", "last_interaction_at",
			"last_sync_at", "created_at", "updated_at").
		Values(contact.ID, contact.TeamID, contact.Email,
			identity.NormalizeEmail(contact.Email), contact.ProfileURL,
			identity.NormalizeProfileURL(contact.ProfileURL), contact.FullName,
			contact.Title, contact.CompanyName, contact.CompanyDomain,
			contact.Phone, string(contact.Source), contact.SourceID,
			contact.ConnectionStrength, contact.InteractionCount,
			nullableTime(contact.LastInteractionAt), nullableTime(contact.LastSyncAt),
			contact.CreatedAt, contact.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a merged contact. The write is a
// single atomic statement per record; there is no multi-record transaction.
func (r *ContactRepository) Update(ctx context.Context, contact domain.Contact) error {
	query, args, err := psql.Update("contacts").
		Set("email", contact.Email).
		Set("email_normalized", identity.NormalizeEmail(contact.Email)).
		Set("profile_url", contact.ProfileURL).
		Set("profile_url_normalized", identity.NormalizeProfileURL(contact.ProfileURL)).
		Set("full_name", contact.FullName).
		Set("title", contact.Title).
		Set("company_name", contact.CompanyName).
		Set("company_domain", contact.CompanyDomain).
		Set("phone", contact.Phone).
		Set("source", string(contact.Source)).
		Set("source_id", contact.SourceID).
		Set("connection_strength", contact.ConnectionStrength).
		Set("interaction_count", contact.InteractionCount).
		Set("last_interaction_at", nullableTime(contact.LastInteractionAt)).
		Set("last_sync_at", nullableTime(contact.LastSyncAt)).
		Set("updated_at", contact.UpdatedAt).
		Where(sq.Eq{"team_id": contact.TeamID, "id": contact.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update contact %s: no such row", contact.ID)
	}
	return nil
}

func (r *ContactRepository) findOne(ctx context.Context, where sq.Eq) (*domain.Contact, error) {
	query, args, err := psql.Select(contactColumns...).
		From("contacts").
		Where(where).
		OrderBy("created_at", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lookup: %w", err)
	}

	row := r.db.QueryRowContext(ctx, query, args...)
	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (domain.Contact, error) {
	var (
		contact           domain.Contact
		source            string
		lastInteractionAt sql.NullTime
		lastSyncAt        sql.NullTime
	)

	err := row.Scan(&contact.ID, &contact.TeamID, &contact.Email,
		&contact.ProfileURL, &contact.FullName, &contact.Title,
		&contact.CompanyName, &contact.CompanyDomain, &contact.Phone,
		&source, &contact.SourceID, &contact.ConnectionStrength,
		&contact.InteractionCount, &lastInteractionAt, &lastSyncAt,
		&contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Contact{}, err
		}
		return domain.Contact{}, fmt.Errorf("scan contact: %w", err)
	}

	contact.Source = domain.ContactSource(source)
	if lastInteractionAt.Valid {
		contact.LastInteractionAt = lastInteractionAt.Time
	}
	if lastSyncAt.Valid {
		contact.LastSyncAt = lastSyncAt.Time
	}
	return contact, nil
}

// nullableTime maps the zero time (the "epoch minimum" of the merge policy)
// to SQL NULL.
func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
