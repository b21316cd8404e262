package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/pg"
)

// Store implements notification.Store.
type Store struct {
	db        DBTX
	userQuery string
}

type Option func(*Store)

// WithUserQuery overrides DefaultUserQuery for host applications whose user
// table looks different.
func WithUserQuery(q string) Option {
	return func(s *Store) {
		if q != "" {
			s.userQuery = q
		}
	}
}

func New(db DBTX, opts ...Option) *Store {
	s := &Store{db: db, userQuery: DefaultUserQuery}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) GetUser(ctx context.Context, id int64) (notification.User, error) {
	var u notification.User
	err := s.db.QueryRow(ctx, s.userQuery, id).Scan(&u.ID, &u.Email, &u.Active)
	if pg.IsNotFoundError(err) {
		return u, fmt.Errorf("%w: %d", notification.ErrUserNotFound, id)
	}
	return u, err
}

func (s *Store) GetNoticeType(ctx context.Context, label string) (notification.NoticeType, error) {
	var nt notification.NoticeType
	err := s.db.QueryRow(ctx,
		`SELECT label, display, description, default_send FROM notification_notice_types WHERE label = $1`, label,
	).Scan(&nt.Label, &nt.Display, &nt.Description, &nt.Default)
	if pg.IsNotFoundError(err) {
		return nt, fmt.Errorf("%w: %q", notification.ErrNoticeTypeNotFound, label)
	}
	return nt, err
}

func (s *Store) ListNoticeTypes(ctx context.Context) ([]notification.NoticeType, error) {
	rows, err := s.db.Query(ctx,
		`SELECT label, display, description, default_send FROM notification_notice_types ORDER BY label`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.NoticeType, error) {
		var nt notification.NoticeType
		err := row.Scan(&nt.Label, &nt.Display, &nt.Description, &nt.Default)
		return nt, err
	})
}

func (s *Store) CreateNoticeType(ctx context.Context, nt notification.NoticeType) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_notice_types (label, display, description, default_send) VALUES ($1, $2, $3, $4)`,
		nt.Label, nt.Display, nt.Description, nt.Default)
	return err
}

func (s *Store) UpdateNoticeType(ctx context.Context, nt notification.NoticeType) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE notification_notice_types SET display = $2, description = $3, default_send = $4 WHERE label = $1`,
		nt.Label, nt.Display, nt.Description, nt.Default)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", notification.ErrNoticeTypeNotFound, nt.Label)
	}
	return nil
}

func (s *Store) GetSetting(ctx context.Context, userID int64, label, medium string) (notification.Setting, error) {
	st := notification.Setting{UserID: userID, NoticeType: label, Medium: medium}
	err := s.db.QueryRow(ctx,
		`SELECT send FROM notification_settings WHERE user_id = $1 AND notice_type = $2 AND medium = $3`,
		userID, label, medium,
	).Scan(&st.Send)
	if pg.IsNotFoundError(err) {
		return st, notification.ErrSettingNotFound
	}
	return st, err
}

// CreateSetting inserts st unless the triple exists and returns the stored row.
func (s *Store) CreateSetting(ctx context.Context, st notification.Setting) (notification.Setting, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_settings (user_id, notice_type, medium, send) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, notice_type, medium) DO NOTHING`,
		st.UserID, st.NoticeType, st.Medium, st.Send)
	if err != nil {
		return notification.Setting{}, err
	}
	return s.GetSetting(ctx, st.UserID, st.NoticeType, st.Medium)
}

func (s *Store) SaveSetting(ctx context.Context, st notification.Setting) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO notification_settings (user_id, notice_type, medium, send) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, notice_type, medium) DO UPDATE SET send = EXCLUDED.send`,
		st.UserID, st.NoticeType, st.Medium, st.Send)
	return err
}

func (s *Store) ClaimUID(ctx context.Context, recipientID int64, uid string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO notification_notice_uids (recipient_id, notice_uid) VALUES ($1, $2)
		 ON CONFLICT (recipient_id, notice_uid) DO NOTHING`,
		recipientID, uid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) CountUIDs(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM notification_notice_uids`).Scan(&n)
	return n, err
}

func (s *Store) TrimUIDs(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM notification_notice_uids WHERE id IN (
		   SELECT id FROM notification_notice_uids ORDER BY id LIMIT $1
		 )`, n)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

const observedColumns = `id, user_id, target_type, target_id, notice_type, signal, added`

func scanObserved(row pgx.Row) (notification.ObservedItem, error) {
	var item notification.ObservedItem
	err := row.Scan(&item.ID, &item.UserID, &item.Target.Type, &item.Target.ID, &item.NoticeType, &item.Signal, &item.Added)
	return item, err
}

func (s *Store) CreateObservation(ctx context.Context, item notification.ObservedItem) (notification.ObservedItem, error) {
	created, err := scanObserved(s.db.QueryRow(ctx,
		`INSERT INTO notification_observed_items (user_id, target_type, target_id, notice_type, signal)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+observedColumns,
		item.UserID, item.Target.Type, item.Target.ID, item.NoticeType, item.Signal))
	if pg.IsDuplicateKeyError(err) {
		return notification.ObservedItem{}, notification.ErrAlreadyObserving
	}
	return created, err
}

func (s *Store) GetObservation(ctx context.Context, target notification.Target, userID int64, signal string) (notification.ObservedItem, error) {
	item, err := scanObserved(s.db.QueryRow(ctx,
		`SELECT `+observedColumns+` FROM notification_observed_items
		 WHERE target_type = $1 AND target_id = $2 AND user_id = $3 AND signal = $4`,
		target.Type, target.ID, userID, signal))
	if pg.IsNotFoundError(err) {
		return item, notification.ErrNotObserving
	}
	return item, err
}

func (s *Store) DeleteObservation(ctx context.Context, target notification.Target, userID int64, signal string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM notification_observed_items
		 WHERE target_type = $1 AND target_id = $2 AND user_id = $3 AND signal = $4`,
		target.Type, target.ID, userID, signal)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotObserving
	}
	return nil
}

func (s *Store) ListObservers(ctx context.Context, target notification.Target, signal string) ([]notification.ObservedItem, error) {
	return s.listObserved(ctx,
		`SELECT `+observedColumns+` FROM notification_observed_items
		 WHERE target_type = $1 AND target_id = $2 AND signal = $3 ORDER BY id`,
		target.Type, target.ID, signal)
}

func (s *Store) ListObserved(ctx context.Context, userID int64) ([]notification.ObservedItem, error) {
	return s.listObserved(ctx,
		`SELECT `+observedColumns+` FROM notification_observed_items WHERE user_id = $1 ORDER BY added DESC, id DESC`,
		userID)
}

func (s *Store) listObserved(ctx context.Context, sql string, args ...any) ([]notification.ObservedItem, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (notification.ObservedItem, error) {
		return scanObserved(row)
	})
}

var _ notification.Store = (*Store)(nil)
