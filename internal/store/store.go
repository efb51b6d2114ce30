// Package store persists translation requests, per-provider candidates,
// consensus results, and a provider health audit trail in SQLite. It also
// implements the translation-memory cache consulted before any provider is
// called.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/polytran/polytran/internal"
	"github.com/polytran/polytran/internal/consensus"
	"github.com/polytran/polytran/internal/provider"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_requests (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		context TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS candidate_results (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		model TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		confidence REAL,
		total_tokens INTEGER,
		latency_ms INTEGER,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES translation_requests(id)
	);

	CREATE TABLE IF NOT EXISTS consensus_results (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		final_text TEXT NOT NULL,
		confidence REAL,
		consensus BOOLEAN DEFAULT FALSE,
		model_agreement REAL,
		models_used TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (request_id) REFERENCES translation_requests(id)
	);

	-- provider_events is the audit trail of health-state transitions
	CREATE TABLE IF NOT EXISTS provider_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		reason TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		final_text TEXT NOT NULL,
		confidence REAL,
		models_used TEXT,
		usage_count INTEGER DEFAULT 1,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, source_lang, target_lang);
	CREATE INDEX IF NOT EXISTS idx_candidates_request ON candidate_results(request_id);
	CREATE INDEX IF NOT EXISTS idx_events_provider ON provider_events(provider_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) SaveRequest(ctx context.Context, req internal.TranslationRequest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_requests (id, source_text, source_lang, target_lang, context, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID, req.SourceText, req.SourceLang, req.TargetLang, req.Context, req.Timestamp)
	return err
}

func (s *Store) SaveCandidate(ctx context.Context, requestID string, c provider.Candidate) error {
	id := fmt.Sprintf("%s_%s", requestID, c.ProviderID)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_results (id, request_id, provider_id, model, translated_text, confidence, total_tokens, latency_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, requestID, c.ProviderID, c.Model, c.Text, c.Confidence, c.TotalTokens, c.Latency.Milliseconds())
	return err
}

func (s *Store) SaveConsensus(ctx context.Context, requestID string, res *consensus.Result) error {
	id := fmt.Sprintf("%s_final", requestID)
	modelsUsed, err := json.Marshal(res.ModelsUsed)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO consensus_results (id, request_id, final_text, confidence, consensus, model_agreement, models_used) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, requestID, res.Text, res.Confidence, res.Consensus, res.ModelAgreement, string(modelsUsed))
	return err
}

// RecordProviderEvent appends one health-state transition to the audit
// trail. Wired as the health tracker's transition observer.
func (s *Store) RecordProviderEvent(ctx context.Context, providerID, fromStatus, toStatus, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO provider_events (provider_id, from_status, to_status, reason) VALUES (?, ?, ?, ?)`,
		providerID, fromStatus, toStatus, reason)
	return err
}

// GetCachedTranslation looks up the translation memory for an exact
// (normalized) source-text match. A hit bumps usage statistics.
func (s *Store) GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang string) (string, float64, bool, error) {
	var finalText string
	var confidence float64
	var invalidated bool

	key := normalizeText(sourceText)
	err := s.db.QueryRowContext(ctx,
		`SELECT final_text, confidence, invalidated FROM translation_memory WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang).Scan(&finalText, &confidence, &invalidated)

	if err == sql.ErrNoRows {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, err
	}
	if invalidated {
		return "", 0, false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		time.Now(), key, sourceLang, targetLang)

	return finalText, confidence, true, err
}

// SaveToMemory stores a reconciled translation for future exact-match hits.
func (s *Store) SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang string, res *consensus.Result) error {
	modelsUsed, err := json.Marshal(res.ModelsUsed)
	if err != nil {
		return err
	}
	id := fmt.Sprintf("mem_%d", time.Now().UnixNano())
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_memory (id, source_text, source_lang, target_lang, final_text, confidence, models_used, usage_count, invalidated, last_used, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, 1, FALSE, ?, ?)`,
		id, normalizeText(sourceText), sourceLang, targetLang, res.Text, res.Confidence, string(modelsUsed), time.Now(), time.Now())
	return err
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID          string
	SourceText  string
	SourceLang  string
	TargetLang  string
	FinalText   string
	Confidence  float64
	UsageCount  int
	Invalidated bool
	LastUsed    time.Time
}

// InvalidateMemory marks a memory entry as stale without deleting it.
func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
	return err
}

// ListMemory returns all translation memory entries ordered by most recently used.
func (s *Store) ListMemory(ctx context.Context) ([]MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_text, source_lang, target_lang, final_text, confidence, usage_count, invalidated, last_used FROM translation_memory ORDER BY last_used DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.SourceLang, &e.TargetLang, &e.FinalText, &e.Confidence, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// ProviderEvent is a row from the provider_events audit trail.
type ProviderEvent struct {
	ID         int64
	ProviderID string
	FromStatus string
	ToStatus   string
	Reason     string
	CreatedAt  time.Time
}

// ListProviderEvents returns the most recent health transitions for one
// provider, newest first. providerID may be empty to list all providers.
func (s *Store) ListProviderEvents(ctx context.Context, providerID string, limit int) ([]ProviderEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, provider_id, from_status, to_status, COALESCE(reason, ''), created_at FROM provider_events`
	args := []interface{}{}
	if providerID != "" {
		query += ` WHERE provider_id = ?`
		args = append(args, providerID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []ProviderEvent
	for rows.Next() {
		var e ProviderEvent
		if err := rows.Scan(&e.ID, &e.ProviderID, &e.FromStatus, &e.ToStatus, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText produces the canonical cache key: NFC-normalized with
// collapsed whitespace, so trivially different renderings of the same text
// hit the same memory row.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
