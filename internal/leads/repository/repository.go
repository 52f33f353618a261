// Package repository persists leads in Postgres. Merge monotonicity is
// enforced in SQL: a merged lead's score can only go up, and the category
// always tracks whichever submission produced the surviving score.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatlead_backend/internal/leads/analyzer"
	"chatlead_backend/internal/leads/domain"
	"chatlead_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is the persisted lead row.
type Lead struct {
	ID             uuid.UUID
	ChatbotID      uuid.UUID
	UserID         uuid.UUID
	ConversationID string
	Contact        domain.Contact
	Facts          domain.Facts
	Score          int
	Category       domain.Category
	Status         domain.Status
	Analysis       *analyzer.Summary
	Notes          string
	Source         string
	Appointment    Appointment
	ContactedAt    *time.Time
	ConvertedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Appointment is the agent-scheduled follow-up slot on a lead. All fields are
// optional; the time and note are free text.
type Appointment struct {
	Date *time.Time
	Time *string
	Note *string
}

// ListFilter narrows the lead list query.
type ListFilter struct {
	ChatbotID *uuid.UUID
	Category  domain.Category
	Status    domain.Status
	Search    string
	Offset    int
	Limit     int
}

// CategoryCounts is the tenant-wide per-bucket breakdown.
type CategoryCounts struct {
	Hot  int
	Warm int
	Cold int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, chatbot_id, user_id, conversation_id, name, phone, email,
	facts, score, category, status, analysis, notes, source,
	appointment_date, appointment_time, appointment_note,
	contacted_at, converted_at, created_at, updated_at`

// FindRecentByPhone returns the newest lead for this chatbot and normalized
// phone created after the cutoff, or nil when there is none.
func (r *Repository) FindRecentByPhone(ctx context.Context, chatbotID uuid.UUID, phone string, cutoff time.Time) (*Lead, error) {
	const op = "leads.FindRecentByPhone"

	query := fmt.Sprintf(`
		SELECT %s FROM cl_leads
		WHERE chatbot_id = $1 AND phone = $2 AND created_at > $3
		ORDER BY created_at DESC
		LIMIT 1`, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, chatbotID, phone, cutoff))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to look up recent lead", err).WithOp(op)
	}
	return lead, nil
}

// Create inserts a new lead and fills in the generated fields.
func (r *Repository) Create(ctx context.Context, lead *Lead) error {
	const op = "leads.Create"

	query := fmt.Sprintf(`
		INSERT INTO cl_leads (
			chatbot_id, user_id, conversation_id, name, phone, email,
			facts, score, category, status, analysis, notes, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s`, leadColumns)

	created, err := scanLead(r.pool.QueryRow(ctx, query,
		lead.ChatbotID,
		lead.UserID,
		lead.ConversationID,
		lead.Contact.Name,
		lead.Contact.Phone,
		lead.Contact.Email,
		lead.Facts,
		lead.Score,
		lead.Category,
		lead.Status,
		lead.Analysis,
		lead.Notes,
		lead.Source,
	))
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to create lead", err).WithOp(op)
	}
	*lead = *created
	return nil
}

// Merge folds a repeat submission into an existing lead. The score is
// monotonic (GREATEST of stored and submitted) and the category, analysis
// and conversation reference follow whichever submission holds the surviving
// score, the fresh one winning ties. Submission notes append.
func (r *Repository) Merge(ctx context.Context, id uuid.UUID, contact domain.Contact, facts domain.Facts, score int, category domain.Category, analysis *analyzer.Summary, conversationID, notes string) (*Lead, error) {
	const op = "leads.Merge"

	query := fmt.Sprintf(`
		UPDATE cl_leads SET
			name = $2,
			email = COALESCE($3, email),
			facts = $4,
			score = GREATEST(score, $5),
			category = CASE WHEN $5 >= score THEN $6 ELSE category END,
			analysis = CASE WHEN $5 >= score THEN $7 ELSE analysis END,
			conversation_id = CASE WHEN $8 <> '' THEN $8 ELSE conversation_id END,
			notes = CASE
				WHEN $9 = '' THEN notes
				WHEN notes = '' THEN $9
				ELSE notes || E'\n\n' || $9
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		id, contact.Name, contact.Email, facts, score, category, analysis, conversationID, notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to merge lead", err).WithOp(op)
	}
	return lead, nil
}

// GetForDispatch loads a lead by id alone. Only the notification dispatcher
// uses this; everything user-facing goes through the owner-scoped GetByID.
func (r *Repository) GetForDispatch(ctx context.Context, id uuid.UUID) (*Lead, error) {
	const op = "leads.GetForDispatch"

	query := fmt.Sprintf(`SELECT %s FROM cl_leads WHERE id = $1`, leadColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

// GetByID loads a lead owned by the given user.
func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (*Lead, error) {
	const op = "leads.GetByID"

	query := fmt.Sprintf(`SELECT %s FROM cl_leads WHERE id = $1 AND user_id = $2`, leadColumns)
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

// List returns a page of the user's leads, hottest first, newest within the
// same bucket, plus the filtered total and the tenant-wide category counts.
func (r *Repository) List(ctx context.Context, userID uuid.UUID, filter ListFilter) ([]Lead, int, CategoryCounts, error) {
	const op = "leads.List"

	where, args := buildListWhere(userID, filter)

	query := fmt.Sprintf(`
		SELECT %s FROM cl_leads
		%s
		ORDER BY
			CASE category WHEN 'hot' THEN 0 WHEN 'warm' THEN 1 ELSE 2 END,
			score DESC,
			created_at DESC
		LIMIT %d OFFSET %d`, leadColumns, where, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, CategoryCounts{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp(op)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, CategoryCounts{}, apperr.Wrap(apperr.KindInternal, "failed to scan lead", err).WithOp(op)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, CategoryCounts{}, apperr.Wrap(apperr.KindInternal, "failed to read leads", err).WithOp(op)
	}

	totalQuery := fmt.Sprintf(`SELECT COUNT(*) FROM cl_leads %s`, where)

	var total int
	if err := r.pool.QueryRow(ctx, totalQuery, args...).Scan(&total); err != nil {
		return nil, 0, CategoryCounts{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err).WithOp(op)
	}

	// Category counts cover the whole tenant (narrowed by chatbot at most),
	// not the optional list filters, so the filter UI keeps showing every
	// bucket while one of them is selected.
	countsWhere, countsArgs := buildListWhere(userID, ListFilter{ChatbotID: filter.ChatbotID})
	countsQuery := fmt.Sprintf(`
		SELECT
			COUNT(*) FILTER (WHERE category = 'hot'),
			COUNT(*) FILTER (WHERE category = 'warm'),
			COUNT(*) FILTER (WHERE category = 'cold')
		FROM cl_leads
		%s`, countsWhere)

	var counts CategoryCounts
	if err := r.pool.QueryRow(ctx, countsQuery, countsArgs...).Scan(&counts.Hot, &counts.Warm, &counts.Cold); err != nil {
		return nil, 0, CategoryCounts{}, apperr.Wrap(apperr.KindInternal, "failed to count lead categories", err).WithOp(op)
	}

	return leads, total, counts, nil
}

// UpdateParams carries the agent-editable lead fields. An empty status and
// nil pointers leave the stored values untouched.
type UpdateParams struct {
	Status      domain.Status
	Notes       *string
	Appointment Appointment
}

// Update applies agent edits to a lead. The first transition to contacted or
// converted stamps the matching timestamp; later transitions leave it
// untouched.
func (r *Repository) Update(ctx context.Context, id, userID uuid.UUID, params UpdateParams) (*Lead, error) {
	const op = "leads.Update"

	query := fmt.Sprintf(`
		UPDATE cl_leads SET
			status = COALESCE(NULLIF($3, ''), status),
			notes = COALESCE($4, notes),
			appointment_date = COALESCE($5, appointment_date),
			appointment_time = COALESCE($6, appointment_time),
			appointment_note = COALESCE($7, appointment_note),
			contacted_at = CASE WHEN $3 = 'contacted' AND contacted_at IS NULL THEN NOW() ELSE contacted_at END,
			converted_at = CASE WHEN $3 = 'converted' AND converted_at IS NULL THEN NOW() ELSE converted_at END,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING %s`, leadColumns)

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		id, userID, string(params.Status), params.Notes,
		params.Appointment.Date, params.Appointment.Time, params.Appointment.Note,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("lead not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp(op)
	}
	return lead, nil
}

func buildListWhere(userID uuid.UUID, filter ListFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if filter.ChatbotID != nil {
		args = append(args, *filter.ChatbotID)
		conds = append(conds, fmt.Sprintf("chatbot_id = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR phone ILIKE $%d)", len(args), len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.ChatbotID,
		&lead.UserID,
		&lead.ConversationID,
		&lead.Contact.Name,
		&lead.Contact.Phone,
		&lead.Contact.Email,
		&lead.Facts,
		&lead.Score,
		&lead.Category,
		&lead.Status,
		&lead.Analysis,
		&lead.Notes,
		&lead.Source,
		&lead.Appointment.Date,
		&lead.Appointment.Time,
		&lead.Appointment.Note,
		&lead.ContactedAt,
		&lead.ConvertedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lead, nil
}
