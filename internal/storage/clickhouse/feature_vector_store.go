package clickhouse

import (
	"context"
	"fmt"
	"time"

	"purchase-intent-lab/internal/domain"
	"purchase-intent-lab/internal/storage"
)

// FeatureVectorStore implements storage.FeatureVectorStore using ClickHouse.
// MergeTree doesn't enforce uniqueness, so duplicate session ids are checked
// explicitly before insert.
type FeatureVectorStore struct {
	conn *Conn
}

// NewFeatureVectorStore creates a new FeatureVectorStore.
func NewFeatureVectorStore(conn *Conn) *FeatureVectorStore {
	return &FeatureVectorStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FeatureVectorStore = (*FeatureVectorStore)(nil)

// InsertBulk adds multiple vectors. Fails entire batch on duplicate session_id.
func (s *FeatureVectorStore) InsertBulk(ctx context.Context, vectors []*domain.FeatureVector) error {
	if len(vectors) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(vectors))
	for _, v := range vectors {
		if _, exists := seen[v.SessionID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[v.SessionID] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, v := range vectors {
		exists, err := s.exists(ctx, v.SessionID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO feature_vectors (
			session_id, visitor_id, visit_id, session_date, bounced,
			time_on_site_sec, pageviews, traffic_source, traffic_medium,
			channel_grouping, device_category, country,
			latest_checkout_progress, label
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, v := range vectors {
		err = batch.Append(
			v.SessionID, v.VisitorID, v.VisitID, v.SessionDate,
			boolToUInt8(v.Bounced), v.TimeOnSiteSec, v.Pageviews,
			v.TrafficSource, v.TrafficMedium, v.ChannelGrouping,
			v.DeviceCategory, v.Country,
			uint8(v.LatestCheckoutProgress), boolToUInt8(v.Label),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

const selectVectorColumns = `
	session_id, visitor_id, visit_id, session_date, bounced,
	time_on_site_sec, pageviews, traffic_source, traffic_medium,
	channel_grouping, device_category, country,
	latest_checkout_progress, label
`

// GetByDateRange retrieves vectors with session_date within [start, end]
// (inclusive), ordered by session_id ASC.
func (s *FeatureVectorStore) GetByDateRange(ctx context.Context, start, end time.Time) ([]*domain.FeatureVector, error) {
	query := `
		SELECT ` + selectVectorColumns + `
		FROM feature_vectors
		WHERE session_date >= ? AND session_date <= ?
		ORDER BY session_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query vectors by date range: %w", err)
	}
	defer rows.Close()

	return scanFeatureVectors(rows)
}

// GetAll retrieves every vector, ordered by session_id ASC.
func (s *FeatureVectorStore) GetAll(ctx context.Context) ([]*domain.FeatureVector, error) {
	query := `
		SELECT ` + selectVectorColumns + `
		FROM feature_vectors
		ORDER BY session_id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query all vectors: %w", err)
	}
	defer rows.Close()

	return scanFeatureVectors(rows)
}

// exists checks if a vector with the given session id exists.
func (s *FeatureVectorStore) exists(ctx context.Context, sessionID string) (bool, error) {
	query := `SELECT count(*) FROM feature_vectors WHERE session_id = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, sessionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanFeatureVectors scans multiple rows into a slice of FeatureVector.
func scanFeatureVectors(rows chRows) ([]*domain.FeatureVector, error) {
	var vectors []*domain.FeatureVector

	for rows.Next() {
		var (
			v        domain.FeatureVector
			bounced  uint8
			progress uint8
			label    uint8
		)

		err := rows.Scan(
			&v.SessionID, &v.VisitorID, &v.VisitID, &v.SessionDate, &bounced,
			&v.TimeOnSiteSec, &v.Pageviews, &v.TrafficSource, &v.TrafficMedium,
			&v.ChannelGrouping, &v.DeviceCategory, &v.Country,
			&progress, &label,
		)
		if err != nil {
			return nil, fmt.Errorf("scan feature vector row: %w", err)
		}

		v.Bounced = bounced != 0
		v.LatestCheckoutProgress = int(progress)
		v.Label = label != 0
		v.SessionDate = v.SessionDate.UTC()
		vectors = append(vectors, &v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature vector rows: %w", err)
	}

	return vectors, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
