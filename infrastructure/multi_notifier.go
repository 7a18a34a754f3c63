package infrastructure

import (
	"context"
	"errors"

	"bookmaker/domain/entities"
	"bookmaker/domain/interfaces"

	"github.com/google/uuid"
)

// MultiNotifier fans every call out to all notifiers and joins their errors
type MultiNotifier struct {
	notifiers []interfaces.Notifier
}

// NewMultiNotifier combines notifiers. A nil entry is skipped.
func NewMultiNotifier(notifiers ...interfaces.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

func (m *MultiNotifier) BroadcastEventUpdate(ctx context.Context, snapshot entities.EventSnapshot) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.BroadcastEventUpdate(ctx, snapshot))
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, notificationType, message string) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.NotifyUser(ctx, userID, notificationType, message))
	}
	return errors.Join(errs...)
}

func (m *MultiNotifier) BroadcastAdminRequest(ctx context.Context, payload any) error {
	var errs []error
	for _, n := range m.notifiers {
		errs = append(errs, n.BroadcastAdminRequest(ctx, payload))
	}
	return errors.Join(errs...)
}
