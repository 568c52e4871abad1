package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"ChannelPublisher/internal/domain"
	"ChannelPublisher/internal/ports"
)

const (
	tableItems     = "discovered_items"
	tableScheduled = "scheduled_content"
	tableTrends    = "trend_observations"
	tableCounters  = "daily_counters"
)

// SQLiteRepository is the single owner of persisted state.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.Store = (*SQLiteRepository)(nil)

// Open creates (if needed) and opens the SQLite file at path and applies the schema.
func Open(path string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes transactions between the loop and the command front end.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// ItemExists reports whether an item with externalID was ever ingested.
func (r *SQLiteRepository) ItemExists(ctx context.Context, externalID string) (bool, error) {
	query, args, err := sq.Select("1").From(tableItems).Where(sq.Eq{"external_id": externalID}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query item exists: %w", err)
	}
	return true, nil
}

// InsertDiscoveredItem stores a new item; it fails with domain.ErrDuplicateKey for a known external id.
func (r *SQLiteRepository) InsertDiscoveredItem(ctx context.Context, item domain.DiscoveredItem) (int64, error) {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	category := item.Category
	if category == "" {
		category = domain.CategoryRegular
	}

	query, args, err := sq.Insert(tableItems).
		Columns("external_id", "title", "summary", "source", "category", "priority", "created_at").
		Values(item.ExternalID, item.Title, item.Summary, item.Source, string(category), category.Priority(), toMillis(createdAt)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build item insert: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert item %s: %w", item.ExternalID, domain.ErrDuplicateKey)
		}
		return 0, fmt.Errorf("insert item: %w", err)
	}
	return res.LastInsertId()
}

// InsertScheduledContent queues a pre-rendered post that becomes eligible at dueAt.
func (r *SQLiteRepository) InsertScheduledContent(ctx context.Context, kind domain.ContentKind, body string, dueAt time.Time) (int64, error) {
	return insertScheduled(ctx, r.db, kind, body, dueAt, time.Now())
}

// InsertTrendObservation appends one scored topic.
func (r *SQLiteRepository) InsertTrendObservation(ctx context.Context, topic string, score int, at time.Time) (int64, error) {
	return insertTrend(ctx, r.db, topic, score, at)
}

// RecordTrend stores an observation, its alert and the daily trend counter as one unit.
func (r *SQLiteRepository) RecordTrend(ctx context.Context, obs domain.TrendObservation, alertBody string, alertDueAt time.Time, date string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := insertTrend(ctx, tx, obs.Topic, obs.Score, obs.DetectedAt); err != nil {
			return err
		}
		if _, err := insertScheduled(ctx, tx, domain.KindTrendAlert, alertBody, alertDueAt, obs.DetectedAt); err != nil {
			return err
		}
		return incrementCounters(ctx, tx, date, 0, 1)
	})
}

// TopTrend returns the highest-scoring observation in [from, to), or nil.
func (r *SQLiteRepository) TopTrend(ctx context.Context, from, to time.Time) (*domain.TrendObservation, error) {
	query, args, err := sq.Select("id", "topic", "score", "detected_at").
		From(tableTrends).
		Where(sq.GtOrEq{"detected_at": toMillis(from)}).
		Where(sq.Lt{"detected_at": toMillis(to)}).
		OrderBy("score DESC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top trend query: %w", err)
	}

	var (
		obs        domain.TrendObservation
		detectedAt int64
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&obs.ID, &obs.Topic, &obs.Score, &detectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query top trend: %w", err)
	}
	obs.DetectedAt = fromMillis(detectedAt)
	return &obs, nil
}

// ClaimNext selects the next deliverable and leases it until now+lease, in one transaction.
// Scheduled content that is due always outranks discovered items.
func (r *SQLiteRepository) ClaimNext(ctx context.Context, now time.Time, lease time.Duration) (*domain.Deliverable, error) {
	var next *domain.Deliverable
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		scheduled, err := nextScheduled(ctx, tx, now)
		if err != nil {
			return err
		}
		if scheduled != nil {
			next = &domain.Deliverable{
				Ref:       domain.DeliverableRef{Kind: domain.DeliverableScheduled, ID: scheduled.ID},
				Scheduled: scheduled,
			}
		} else {
			item, err := nextItem(ctx, tx, now)
			if err != nil {
				return err
			}
			if item == nil {
				return nil
			}
			next = &domain.Deliverable{
				Ref:  domain.DeliverableRef{Kind: domain.DeliverableItem, ID: item.ID},
				Item: item,
			}
		}
		return setClaim(ctx, tx, next.Ref, toMillis(now.Add(lease)))
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// CompleteDelivery marks the row delivered and counts the post for date.
func (r *SQLiteRepository) CompleteDelivery(ctx context.Context, ref domain.DeliverableRef, date string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		changed, err := markDelivered(ctx, tx, ref)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return incrementCounters(ctx, tx, date, 1, 0)
	})
}

// ReleaseClaim makes the row eligible again.
func (r *SQLiteRepository) ReleaseClaim(ctx context.Context, ref domain.DeliverableRef) error {
	return setClaim(ctx, r.db, ref, 0)
}

// MarkDelivered flags the row as delivered without touching counters.
func (r *SQLiteRepository) MarkDelivered(ctx context.Context, ref domain.DeliverableRef) error {
	_, err := markDelivered(ctx, r.db, ref)
	return err
}

// IncrementDailyCounters upserts the counters row for date.
func (r *SQLiteRepository) IncrementDailyCounters(ctx context.Context, date string, postsDelta, trendsDelta int) error {
	return incrementCounters(ctx, r.db, date, postsDelta, trendsDelta)
}

// Stats aggregates queue and counter figures; from/to bound "today" for trend observations.
func (r *SQLiteRepository) Stats(ctx context.Context, date string, from, to time.Time) (domain.StatsSnapshot, error) {
	var (
		snap domain.StatsSnapshot
		err  error
	)

	counts := []struct {
		dst     *int
		builder sq.SelectBuilder
	}{
		{&snap.TotalItems, sq.Select("COUNT(*)").From(tableItems)},
		{&snap.DeliveredItems, sq.Select("COUNT(*)").From(tableItems).Where(sq.Eq{"delivered": 1})},
		{&snap.QueuedItems, sq.Select("COUNT(*)").From(tableItems).Where(sq.Eq{"delivered": 0})},
		{&snap.QueuedScheduled, sq.Select("COUNT(*)").From(tableScheduled).Where(sq.Eq{"delivered": 0})},
		{&snap.TrendsToday, sq.Select("COUNT(*)").From(tableTrends).
			Where(sq.GtOrEq{"detected_at": toMillis(from)}).
			Where(sq.Lt{"detected_at": toMillis(to)})},
	}
	for _, c := range counts {
		if *c.dst, err = r.count(ctx, c.builder); err != nil {
			return domain.StatsSnapshot{}, err
		}
	}

	snap.Today, err = r.counters(ctx, date)
	if err != nil {
		return domain.StatsSnapshot{}, err
	}
	return snap, nil
}

func (r *SQLiteRepository) count(ctx context.Context, b sq.SelectBuilder) (int, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) counters(ctx context.Context, date string) (domain.DailyCounters, error) {
	query, args, err := sq.Select("posts_delivered", "trends_detected").
		From(tableCounters).
		Where(sq.Eq{"date": date}).
		ToSql()
	if err != nil {
		return domain.DailyCounters{}, fmt.Errorf("build counters query: %w", err)
	}

	out := domain.DailyCounters{Date: date}
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&out.PostsDelivered, &out.TrendsDetected)
	if errors.Is(err, sql.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return domain.DailyCounters{}, fmt.Errorf("query counters: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertScheduled(ctx context.Context, ex execer, kind domain.ContentKind, body string, dueAt, createdAt time.Time) (int64, error) {
	query, args, err := sq.Insert(tableScheduled).
		Columns("kind", "body", "due_at", "created_at").
		Values(string(kind), body, toMillis(dueAt), toMillis(createdAt)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build scheduled insert: %w", err)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert scheduled content: %w", err)
	}
	return res.LastInsertId()
}

func insertTrend(ctx context.Context, ex execer, topic string, score int, at time.Time) (int64, error) {
	query, args, err := sq.Insert(tableTrends).
		Columns("topic", "score", "detected_at").
		Values(topic, score, toMillis(at)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build trend insert: %w", err)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert trend observation: %w", err)
	}
	return res.LastInsertId()
}

func incrementCounters(ctx context.Context, ex execer, date string, postsDelta, trendsDelta int) error {
	query, args, err := sq.Insert(tableCounters).
		Columns("date", "posts_delivered", "trends_detected").
		Values(date, postsDelta, trendsDelta).
		Suffix("ON CONFLICT(date) DO UPDATE SET " +
			"posts_delivered = posts_delivered + excluded.posts_delivered, " +
			"trends_detected = trends_detected + excluded.trends_detected").
		ToSql()
	if err != nil {
		return fmt.Errorf("build counters upsert: %w", err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert counters: %w", err)
	}
	return nil
}

func nextScheduled(ctx context.Context, ex execer, now time.Time) (*domain.ScheduledContent, error) {
	nowMs := toMillis(now)
	query, args, err := sq.Select("id", "kind", "body", "due_at", "created_at").
		From(tableScheduled).
		Where(sq.Eq{"delivered": 0}).
		Where(sq.LtOrEq{"due_at": nowMs}).
		Where(sq.LtOrEq{"claimed_until": nowMs}).
		OrderBy("due_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scheduled query: %w", err)
	}

	var (
		sc               domain.ScheduledContent
		kind             string
		dueAt, createdAt int64
	)
	err = ex.QueryRowContext(ctx, query, args...).Scan(&sc.ID, &kind, &sc.Body, &dueAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query next scheduled: %w", err)
	}
	sc.Kind = domain.ContentKind(kind)
	sc.DueAt = fromMillis(dueAt)
	sc.CreatedAt = fromMillis(createdAt)
	return &sc, nil
}

func nextItem(ctx context.Context, ex execer, now time.Time) (*domain.DiscoveredItem, error) {
	query, args, err := sq.Select("id", "external_id", "title", "summary", "source", "category", "created_at").
		From(tableItems).
		Where(sq.Eq{"delivered": 0}).
		Where(sq.LtOrEq{"claimed_until": toMillis(now)}).
		OrderBy("priority ASC", "created_at ASC", "id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}

	var (
		item      domain.DiscoveredItem
		category  string
		createdAt int64
	)
	err = ex.QueryRowContext(ctx, query, args...).
		Scan(&item.ID, &item.ExternalID, &item.Title, &item.Summary, &item.Source, &category, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query next item: %w", err)
	}
	item.Category = domain.Category(category)
	item.CreatedAt = fromMillis(createdAt)
	return &item, nil
}

func setClaim(ctx context.Context, ex execer, ref domain.DeliverableRef, until int64) error {
	table, err := tableFor(ref)
	if err != nil {
		return err
	}
	query, args, err := sq.Update(table).
		Set("claimed_until", until).
		Where(sq.Eq{"id": ref.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build claim update: %w", err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update claim %s: %w", ref, err)
	}
	return nil
}

// markDelivered reports whether the row changed state; redelivery of a delivered row is a no-op.
func markDelivered(ctx context.Context, ex execer, ref domain.DeliverableRef) (bool, error) {
	table, err := tableFor(ref)
	if err != nil {
		return false, err
	}
	query, args, err := sq.Update(table).
		Set("delivered", 1).
		Set("claimed_until", 0).
		Where(sq.Eq{"id": ref.ID, "delivered": 0}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delivered update: %w", err)
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("mark delivered %s: %w", ref, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func tableFor(ref domain.DeliverableRef) (string, error) {
	switch ref.Kind {
	case domain.DeliverableItem:
		return tableItems, nil
	case domain.DeliverableScheduled:
		return tableScheduled, nil
	}
	return "", fmt.Errorf("unknown deliverable kind %q", ref.Kind)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
