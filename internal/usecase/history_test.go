package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aurelhotels/credential-service/internal/core/domain"
	"github.com/aurelhotels/credential-service/internal/infra/security"
)

type historyUserRepoMock struct {
	entries []domain.PasswordHistoryEntry
	listErr error
	addErr  error
	trimErr error
	trimmed int
	trimMax int
}

func (m *historyUserRepoMock) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("unexpected call: GetByID")
}

func (m *historyUserRepoMock) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, errors.New("unexpected call: GetByEmail")
}

func (m *historyUserRepoMock) UpdatePassword(context.Context, string, string, time.Time) error {
	return errors.New("unexpected call: UpdatePassword")
}

func (m *historyUserRepoMock) ListPasswordHistory(_ context.Context, _ string, limit int) ([]domain.PasswordHistoryEntry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	sorted := make([]domain.PasswordHistoryEntry, len(m.entries))
	copy(sorted, m.entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SetAt.After(sorted[j].SetAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (m *historyUserRepoMock) AddPasswordHistory(_ context.Context, entry domain.PasswordHistoryEntry) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *historyUserRepoMock) TrimPasswordHistory(_ context.Context, _ string, maxEntries int) error {
	if m.trimErr != nil {
		return m.trimErr
	}
	m.trimmed++
	m.trimMax = maxEntries
	return nil
}

func historyEntry(t *testing.T, password string, setAt time.Time) domain.PasswordHistoryEntry {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return domain.PasswordHistoryEntry{
		ID:           fmt.Sprintf("entry-%d", setAt.Unix()),
		UserID:       "user-1",
		PasswordHash: hash,
		SetAt:        setAt,
	}
}

func TestHistoryLedgerDetectsRecentReuse(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &historyUserRepoMock{
		entries: []domain.PasswordHistoryEntry{
			historyEntry(t, "Recent#Pass1", base),
			historyEntry(t, "Older#Pass2", base.Add(-time.Hour)),
		},
	}
	ledger := NewPasswordHistoryLedger(repo, 5, nil)

	if !ledger.WasRecentlyUsed(context.Background(), "user-1", "Recent#Pass1") {
		t.Fatal("expected recent password to be detected")
	}
	if !ledger.WasRecentlyUsed(context.Background(), "user-1", "Older#Pass2") {
		t.Fatal("expected second recent password to be detected")
	}
	if ledger.WasRecentlyUsed(context.Background(), "user-1", "Fresh#Pass3") {
		t.Fatal("fresh password must not be flagged")
	}
}

func TestHistoryLedgerOnlyConsidersLastN(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &historyUserRepoMock{}
	for i := 0; i < 6; i++ {
		repo.entries = append(repo.entries, historyEntry(t, fmt.Sprintf("Hist#Pass%d", i), base.Add(time.Duration(i)*time.Hour)))
	}
	ledger := NewPasswordHistoryLedger(repo, 5, nil)

	// The oldest of six entries falls outside the five-deep window.
	if ledger.WasRecentlyUsed(context.Background(), "user-1", "Hist#Pass0") {
		t.Fatal("entry outside the history depth must not be flagged")
	}
	if !ledger.WasRecentlyUsed(context.Background(), "user-1", "Hist#Pass5") {
		t.Fatal("newest entry must be flagged")
	}
}

func TestHistoryLedgerFailsOpen(t *testing.T) {
	repo := &historyUserRepoMock{listErr: errors.New("database down")}
	ledger := NewPasswordHistoryLedger(repo, 5, nil)

	if ledger.WasRecentlyUsed(context.Background(), "user-1", "Any#Pass1") {
		t.Fatal("storage failure must not block the reset")
	}
}

func TestHistoryLedgerRecordInsertsAndTrims(t *testing.T) {
	repo := &historyUserRepoMock{}
	ledger := NewPasswordHistoryLedger(repo, 5, nil)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	ledger.Record(context.Background(), "user-1", "$2a$12$fakehash", at)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry inserted, got %d", len(repo.entries))
	}
	if repo.entries[0].UserID != "user-1" || repo.entries[0].PasswordHash != "$2a$12$fakehash" {
		t.Fatalf("unexpected entry: %+v", repo.entries[0])
	}
	if repo.trimmed != 1 || repo.trimMax != 5 {
		t.Fatalf("expected trim to 5 entries, trimmed=%d max=%d", repo.trimmed, repo.trimMax)
	}
}

func TestHistoryLedgerRecordSwallowsFailures(t *testing.T) {
	repo := &historyUserRepoMock{addErr: errors.New("insert failed")}
	ledger := NewPasswordHistoryLedger(repo, 5, nil)

	// Must not panic or propagate.
	ledger.Record(context.Background(), "user-1", "$2a$12$fakehash", time.Now())
}
