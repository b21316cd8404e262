package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// Inbox implements inbox.Storage.
type Inbox struct {
	db DBTX
}

func NewInbox(db DBTX) *Inbox { return &Inbox{db: db} }

const noticeColumns = `id, recipient_id, sender_id, notice_type, message, added, unseen, archived, on_site`

func scanNotice(row pgx.Row) (inbox.Notice, error) {
	var n inbox.Notice
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.NoticeType, &n.Message, &n.Added, &n.Unseen, &n.Archived, &n.OnSite)
	return n, err
}

func (s *Inbox) Create(ctx context.Context, n inbox.Notice) error {
	if n.RecipientID == 0 {
		return inbox.ErrInvalidRecipient
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Added.IsZero() {
		n.Added = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_notices (`+noticeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		n.ID, n.RecipientID, n.SenderID, n.NoticeType, n.Message, n.Added, n.Unseen, n.Archived, n.OnSite)
	return err
}

func (s *Inbox) Get(ctx context.Context, id uuid.UUID) (inbox.Notice, error) {
	n, err := scanNotice(s.db.QueryRow(ctx, `SELECT `+noticeColumns+` FROM notification_notices WHERE id = $1`, id))
	if pg.IsNotFoundError(err) {
		return n, inbox.ErrNoticeNotFound
	}
	return n, err
}

// listQuery builds the filtered select for List. It is separate so the
// generated SQL can be tested without a database.
func listQuery(userID int64, opts inbox.ListOptions) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Sent {
		where = append(where, "sender_id = "+arg(userID))
	} else {
		where = append(where, "recipient_id = "+arg(userID))
	}
	if !opts.IncludeArchived {
		where = append(where, "archived = FALSE")
	}
	if opts.Unseen != nil {
		where = append(where, "unseen = "+arg(*opts.Unseen))
	}
	if opts.OnSite != nil {
		where = append(where, "on_site = "+arg(*opts.OnSite))
	}

	q := `SELECT ` + noticeColumns + ` FROM notification_notices WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY added DESC`
	if opts.Limit > 0 {
		q += " LIMIT " + arg(opts.Limit)
	}
	if opts.Offset > 0 {
		q += " OFFSET " + arg(opts.Offset)
	}
	return q, args
}

func (s *Inbox) List(ctx context.Context, userID int64, opts inbox.ListOptions) ([]inbox.Notice, error) {
	q, args := listQuery(userID, opts)
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (inbox.Notice, error) {
		return scanNotice(row)
	})
}

func (s *Inbox) MarkSeen(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	_, err := s.db.Exec(ctx, `UPDATE notification_notices SET unseen = FALSE WHERE id = ANY($1::uuid[])`, strs)
	return err
}

func (s *Inbox) Archive(ctx context.Context, id uuid.UUID) error {
	return s.execOne(ctx, `UPDATE notification_notices SET archived = TRUE WHERE id = $1`, id)
}

func (s *Inbox) Delete(ctx context.Context, id uuid.UUID) error {
	return s.execOne(ctx, `DELETE FROM notification_notices WHERE id = $1`, id)
}

func (s *Inbox) execOne(ctx context.Context, sql string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return inbox.ErrNoticeNotFound
	}
	return nil
}

func (s *Inbox) CountUnseen(ctx context.Context, recipientID int64, onSite *bool) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM notification_notices
		 WHERE recipient_id = $1 AND unseen AND NOT archived AND ($2::boolean IS NULL OR on_site = $2)`,
		recipientID, onSite,
	).Scan(&n)
	return n, err
}

var _ inbox.Storage = (*Inbox)(nil)
