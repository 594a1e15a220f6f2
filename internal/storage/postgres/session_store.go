package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// SessionStore implements storage.SessionStore using PostgreSQL.
// Sessions live in the sessions table with their hit sequences in
// session_hits.
type SessionStore struct {
	pool *Pool
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(pool *Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SessionStore = (*SessionStore)(nil)

const insertSessionQuery = `
	INSERT INTO sessions (
		visitor_id, visit_id, session_date, is_first_visit, bounced,
		time_on_site_sec, pageviews, traffic_source, traffic_medium,
		channel_grouping, device_category, country, transactions
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

const insertHitQuery = `
	INSERT INTO session_hits (
		visitor_id, visit_id, hit_number, action_type, product_count
	) VALUES ($1, $2, $3, $4, $5)
`

// Insert adds a new session with its nested hits.
// Returns ErrDuplicateKey if (visitor_id, visit_id) exists.
func (s *SessionStore) Insert(ctx context.Context, sess *domain.Session) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertSessionTx(ctx, tx, sess); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// InsertBulk adds multiple sessions atomically. Fails entire batch on any duplicate.
func (s *SessionStore) InsertBulk(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, sess := range sessions {
		if err := insertSessionTx(ctx, tx, sess); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// insertSessionTx writes one session and its hits inside the transaction.
func insertSessionTx(ctx context.Context, tx pgx.Tx, sess *domain.Session) error {
	_, err := tx.Exec(ctx, insertSessionQuery,
		sess.VisitorID,
		sess.VisitID,
		sess.SessionDate,
		sess.IsFirstVisit,
		sess.Bounced,
		sess.TimeOnSiteSec,
		sess.Pageviews,
		sess.TrafficSource,
		sess.TrafficMedium,
		sess.ChannelGrouping,
		sess.DeviceCategory,
		sess.Country,
		sess.Transactions,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert session: %w", err)
	}

	for _, h := range sess.Hits {
		_, err := tx.Exec(ctx, insertHitQuery,
			sess.VisitorID, sess.VisitID, h.HitNumber, h.ActionType, h.ProductCount,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert session hit: %w", err)
		}
	}
	return nil
}

const selectSessionColumns = `
	visitor_id, visit_id, session_date, is_first_visit, bounced,
	time_on_site_sec, pageviews, traffic_source, traffic_medium,
	channel_grouping, device_category, country, transactions
`

// GetByVisitorID retrieves all sessions for a visitor,
// ordered by session_date ASC, visit_id ASC.
func (s *SessionStore) GetByVisitorID(ctx context.Context, visitorID string) ([]*domain.Session, error) {
	query := `
		SELECT ` + selectSessionColumns + `
		FROM sessions
		WHERE visitor_id = $1
		ORDER BY session_date ASC, visit_id ASC
	`

	rows, err := s.pool.Query(ctx, query, visitorID)
	if err != nil {
		return nil, fmt.Errorf("get sessions by visitor id: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachHits(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetByDateRange retrieves sessions with session_date within [start, end]
// (inclusive), ordered by visitor_id ASC, visit_id ASC.
func (s *SessionStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.Session, error) {
	query := `
		SELECT ` + selectSessionColumns + `
		FROM sessions
		WHERE session_date >= $1 AND session_date <= $2
		ORDER BY visitor_id ASC, visit_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get sessions by date range: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachHits(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// GetAll retrieves every session, ordered by visitor_id ASC, visit_id ASC.
func (s *SessionStore) GetAll(ctx context.Context) ([]*domain.Session, error) {
	query := `
		SELECT ` + selectSessionColumns + `
		FROM sessions
		ORDER BY visitor_id ASC, visit_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if err := s.attachHits(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachHits loads the hit sequences for the given sessions in one query.
func (s *SessionStore) attachHits(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	type key struct {
		visitorID string
		visitID   int64
	}
	byKey := make(map[key]*domain.Session, len(sessions))
	visitorIDs := make([]string, 0, len(sessions))
	seenVisitors := make(map[string]struct{})
	for _, sess := range sessions {
		byKey[key{sess.VisitorID, sess.VisitID}] = sess
		if _, ok := seenVisitors[sess.VisitorID]; !ok {
			seenVisitors[sess.VisitorID] = struct{}{}
			visitorIDs = append(visitorIDs, sess.VisitorID)
		}
	}

	query := `
		SELECT visitor_id, visit_id, hit_number, action_type, product_count
		FROM session_hits
		WHERE visitor_id = ANY($1)
		ORDER BY visitor_id ASC, visit_id ASC, hit_number ASC
	`

	rows, err := s.pool.Query(ctx, query, visitorIDs)
	if err != nil {
		return fmt.Errorf("get session hits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			visitorID string
			visitID   int64
			hit       domain.Hit
		)
		if err := rows.Scan(&visitorID, &visitID, &hit.HitNumber, &hit.ActionType, &hit.ProductCount); err != nil {
			return fmt.Errorf("scan session hit row: %w", err)
		}
		if sess, ok := byKey[key{visitorID, visitID}]; ok {
			sess.Hits = append(sess.Hits, hit)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate session hit rows: %w", err)
	}

	return nil
}

// scanSessions scans multiple rows into a slice of Session.
func scanSessions(rows pgx.Rows) ([]*domain.Session, error) {
	var sessions []*domain.Session

	for rows.Next() {
		var sess domain.Session

		err := rows.Scan(
			&sess.VisitorID,
			&sess.VisitID,
			&sess.SessionDate,
			&sess.IsFirstVisit,
			&sess.Bounced,
			&sess.TimeOnSiteSec,
			&sess.Pageviews,
			&sess.TrafficSource,
			&sess.TrafficMedium,
			&sess.ChannelGrouping,
			&sess.DeviceCategory,
			&sess.Country,
			&sess.Transactions,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}

		sess.SessionDate = sess.SessionDate.UTC()
		sessions = append(sessions, &sess)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session rows: %w", err)
	}

	return sessions, nil
}
