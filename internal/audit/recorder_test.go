package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nikelchange/kurbot/internal/domain"
)

type stubUserRepo struct {
	upserts int
	err     error
}

func (s *stubUserRepo) Upsert(context.Context, *domain.User) error {
	s.upserts++
	return s.err
}

func (s *stubUserRepo) FindByTelegramID(context.Context, int64) (*domain.User, error) {
	return nil, nil
}

func (s *stubUserRepo) List(context.Context, string, int) ([]domain.User, error) {
	return nil, nil
}

func (s *stubUserRepo) Delete(context.Context, int64) error { return nil }

func (s *stubUserRepo) Count(context.Context) (int64, error) { return 0, nil }

func (s *stubUserRepo) CountActiveSince(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubMessageRepo struct {
	appends int
	err     error
}

func (s *stubMessageRepo) Append(context.Context, *domain.Message) error {
	s.appends++
	return s.err
}

func (s *stubMessageRepo) List(context.Context, string, domain.MessageType, int) ([]domain.Message, error) {
	return nil, nil
}

func (s *stubMessageRepo) Delete(context.Context, int64) error { return nil }

func (s *stubMessageRepo) Count(context.Context) (int64, error) { return 0, nil }

type stubActivityRepo struct {
	appends []*domain.Activity
	err     error
}

func (s *stubActivityRepo) Append(_ context.Context, activity *domain.Activity) error {
	s.appends = append(s.appends, activity)
	return s.err
}

func (s *stubActivityRepo) List(context.Context, string, int) ([]domain.Activity, error) {
	return nil, nil
}

func (s *stubActivityRepo) Delete(context.Context, int64) error { return nil }

func (s *stubActivityRepo) CountByAction(context.Context, string) (int64, error) {
	return 0, nil
}

func TestRecordInboundWritesAllThree(t *testing.T) {
	users := &stubUserRepo{}
	messages := &stubMessageRepo{}
	activities := &stubActivityRepo{}

	recorder := NewRecorder(users, messages, activities,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder.RecordInbound(context.Background(),
		&domain.User{TelegramID: 99, Username: "ali"},
		&domain.Message{TelegramID: 99, Text: "/start", Type: domain.MessageTypeCommand},
		domain.ActionMessageReceived,
		"Mesaj: /start",
	)

	assert.Equal(t, 1, users.upserts)
	assert.Equal(t, 1, messages.appends)

	if assert.Len(t, activities.appends, 1) {
		assert.Equal(t, domain.ActionMessageReceived, activities.appends[0].Action)
		assert.Equal(t, int64(99), activities.appends[0].TelegramID)
	}
}

func TestRecordInboundSwallowsStorageFailures(t *testing.T) {
	users := &stubUserRepo{err: errors.New("db down")}
	messages := &stubMessageRepo{err: errors.New("db down")}
	activities := &stubActivityRepo{err: errors.New("db down")}

	recorder := NewRecorder(users, messages, activities,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or return: audit failures never stall the bot.
	recorder.RecordInbound(context.Background(),
		&domain.User{TelegramID: 99},
		&domain.Message{TelegramID: 99, Text: "hi", Type: domain.MessageTypeText},
		domain.ActionMessageReceived,
		"",
	)

	// Every write was still attempted despite the first failing.
	assert.Equal(t, 1, users.upserts)
	assert.Equal(t, 1, messages.appends)
	assert.Len(t, activities.appends, 1)
}

func TestRecordAppendsActivity(t *testing.T) {
	activities := &stubActivityRepo{}
	recorder := NewRecorder(&stubUserRepo{}, &stubMessageRepo{}, activities,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	recorder.Record(context.Background(), 42, domain.ActionPricesViewed, "")

	if assert.Len(t, activities.appends, 1) {
		assert.Equal(t, domain.ActionPricesViewed, activities.appends[0].Action)
	}
}
