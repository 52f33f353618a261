// Package repository persists chatbot configuration in Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chatlead_backend/internal/crm"
	"chatlead_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Chatbot is a tenant-owned bot with its notification and CRM settings.
type Chatbot struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	Name              string
	PublicKey         string
	NotificationEmail *string
	NotificationPhone *string
	CRM               *crm.Config
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const chatbotColumns = `id, user_id, name, public_key, notification_email, notification_phone, crm_config, created_at, updated_at`

// GetByID loads a chatbot owned by the given user. Another user's chatbot is
// reported as not found, never as forbidden, so IDs cannot be probed.
func (r *Repository) GetByID(ctx context.Context, id, userID uuid.UUID) (*Chatbot, error) {
	const op = "chatbots.GetByID"

	query := fmt.Sprintf(`SELECT %s FROM cl_chatbots WHERE id = $1 AND user_id = $2`, chatbotColumns)
	bot, err := scanChatbot(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("chatbot not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load chatbot", err).WithOp(op)
	}
	return bot, nil
}

// GetForDispatch loads a chatbot by id alone, for the notification
// dispatcher which acts on behalf of the tenant.
func (r *Repository) GetForDispatch(ctx context.Context, id uuid.UUID) (*Chatbot, error) {
	const op = "chatbots.GetForDispatch"

	query := fmt.Sprintf(`SELECT %s FROM cl_chatbots WHERE id = $1`, chatbotColumns)
	bot, err := scanChatbot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("chatbot not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load chatbot", err).WithOp(op)
	}
	return bot, nil
}

// GetByPublicKey resolves a chatbot from the key embedded in the widget. This
// is the only lookup the unauthenticated intake endpoint performs.
func (r *Repository) GetByPublicKey(ctx context.Context, publicKey string) (*Chatbot, error) {
	const op = "chatbots.GetByPublicKey"

	query := fmt.Sprintf(`SELECT %s FROM cl_chatbots WHERE public_key = $1`, chatbotColumns)
	bot, err := scanChatbot(r.pool.QueryRow(ctx, query, publicKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("chatbot not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load chatbot", err).WithOp(op)
	}
	return bot, nil
}

// UpdateSettings replaces the notification recipients and the CRM
// configuration blob in one statement.
func (r *Repository) UpdateSettings(ctx context.Context, id, userID uuid.UUID, email, phone *string, crmCfg *crm.Config) (*Chatbot, error) {
	const op = "chatbots.UpdateSettings"

	query := fmt.Sprintf(`
		UPDATE cl_chatbots
		SET notification_email = $3,
		    notification_phone = $4,
		    crm_config = $5,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING %s`, chatbotColumns)

	bot, err := scanChatbot(r.pool.QueryRow(ctx, query, id, userID, email, phone, crmCfg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("chatbot not found").WithOp(op)
		}
		return nil, apperr.Wrap(apperr.KindInternal, "failed to update chatbot settings", err).WithOp(op)
	}
	return bot, nil
}

func scanChatbot(row pgx.Row) (*Chatbot, error) {
	var bot Chatbot
	err := row.Scan(
		&bot.ID,
		&bot.UserID,
		&bot.Name,
		&bot.PublicKey,
		&bot.NotificationEmail,
		&bot.NotificationPhone,
		&bot.CRM,
		&bot.CreatedAt,
		&bot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bot, nil
}
