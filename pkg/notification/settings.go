package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/token"
)

// SettingsTable is a user's preferences: one row per notice type, one cell
// per configured medium, in registry order.
type SettingsTable struct {
	Columns []Column
	Rows    []SettingsRow
}

type Column struct {
	MediumID string
	Label    string
}

type SettingsRow struct {
	NoticeType NoticeType
	Cells      []SettingsCell
}

// SettingsCell holds one resolved setting. FormLabel is "<label>_<medium>".
type SettingsCell struct {
	MediumID  string
	FormLabel string
	Send      bool
}

// SettingsTable resolves every (notice type, medium) setting for userID,
// persisting defaults for cells never seen before.
func (s *Service) SettingsTable(ctx context.Context, userID int64) (SettingsTable, error) {
	types, err := s.store.ListNoticeTypes(ctx)
	if err != nil {
		return SettingsTable{}, fmt.Errorf("list notice types: %w", err)
	}
	media := s.dispatcher.Registry().Media()

	table := SettingsTable{Columns: make([]Column, len(media)), Rows: make([]SettingsRow, 0, len(types))}
	for i, m := range media {
		table.Columns[i] = Column{MediumID: m.ID, Label: m.Label}
	}
	for _, nt := range types {
		row := SettingsRow{NoticeType: nt, Cells: make([]SettingsCell, 0, len(media))}
		for _, m := range media {
			st, err := s.resolver.Resolve(ctx, userID, nt, m.ID)
			if err != nil {
				return SettingsTable{}, err
			}
			row.Cells = append(row.Cells, SettingsCell{
				MediumID:  m.ID,
				FormLabel: nt.Label + "_" + m.ID,
				Send:      st.Send,
			})
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// UpdateSetting stores the user's choice for one notice type and medium.
func (s *Service) UpdateSetting(ctx context.Context, userID int64, label, mediumID string, send bool) error {
	nt, err := s.store.GetNoticeType(ctx, label)
	if err != nil {
		return err
	}
	if _, err := s.resolver.Default(nt, mediumID); err != nil {
		return err
	}
	return s.store.SaveSetting(ctx, Setting{UserID: userID, NoticeType: label, Medium: mediumID, Send: send})
}

type unsubscribePayload struct {
	Medium string `json:"m"`
	UserID int64  `json:"u"`
	Label  string `json:"l,omitempty"`
}

// UnsubscribeResult describes what Unsubscribe turned off.
type UnsubscribeResult struct {
	User     User
	Medium   Medium
	Settings []Setting
}

// UnsubscribeCode signs a one-click opt-out for userID on mediumID. An empty
// label covers every notice type.
func (s *Service) UnsubscribeCode(userID int64, mediumID, label string) (string, error) {
	if s.signer == nil {
		return "", errors.New("notification: unsubscribe signer is not configured")
	}
	if _, ok := s.dispatcher.Registry().Medium(mediumID); !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMedium, mediumID)
	}
	return token.Sign(s.signer, unsubscribePayload{Medium: mediumID, UserID: userID, Label: label}, s.unsubscribeTTL)
}

// Unsubscribe verifies code and turns sending off for the encoded user and
// medium, for one notice type or all of them.
func (s *Service) Unsubscribe(ctx context.Context, code string) (UnsubscribeResult, error) {
	if s.signer == nil {
		return UnsubscribeResult{}, ErrInvalidUnsubscribeCode
	}
	p, err := token.Verify[unsubscribePayload](s.signer, code)
	if err != nil {
		return UnsubscribeResult{}, errors.Join(ErrInvalidUnsubscribeCode, err)
	}
	medium, ok := s.dispatcher.Registry().Medium(p.Medium)
	if !ok {
		return UnsubscribeResult{}, fmt.Errorf("%w: %w %q", ErrInvalidUnsubscribeCode, ErrUnknownMedium, p.Medium)
	}
	user, err := s.store.GetUser(ctx, p.UserID)
	if err != nil {
		return UnsubscribeResult{}, errors.Join(ErrInvalidUnsubscribeCode, err)
	}

	var types []NoticeType
	if p.Label != "" {
		nt, err := s.store.GetNoticeType(ctx, p.Label)
		if err != nil {
			return UnsubscribeResult{}, errors.Join(ErrInvalidUnsubscribeCode, err)
		}
		types = []NoticeType{nt}
	} else if types, err = s.store.ListNoticeTypes(ctx); err != nil {
		return UnsubscribeResult{}, fmt.Errorf("list notice types: %w", err)
	}

	res := UnsubscribeResult{User: user, Medium: medium}
	for _, nt := range types {
		st := Setting{UserID: user.ID, NoticeType: nt.Label, Medium: medium.ID, Send: false}
		if err := s.store.SaveSetting(ctx, st); err != nil {
			return res, fmt.Errorf("save setting: %w", err)
		}
		res.Settings = append(res.Settings, st)
	}
	return res, nil
}
