package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// SaveIndicators upserts a batch of indicators. An incoming stix_id wins over
// a NULL column but never clobbers an existing one, so exported identity
// stays stable.
func (r *PostgresRepository) SaveIndicators(ctx context.Context, indicators []domain.Indicator) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO indicators (name, description, type, value, pattern, indicator_types, confidence, labels, source, valid_from, valid_until, stix_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()), COALESCE($14, now()))
		ON CONFLICT (value, source) DO UPDATE SET
			stix_id    = COALESCE(indicators.stix_id, EXCLUDED.stix_id),
			labels     = EXCLUDED.labels,
			confidence = EXCLUDED.confidence,
			updated_at = now()
	`

	for _, ind := range indicators {
		batch.Queue(query,
			ind.Name,
			ind.Description,
			ind.Type,
			ind.Value,
			ind.Pattern,
			ind.IndicatorTypes,
			ind.Confidence,
			ind.Labels,
			ind.Source,
			ind.ValidFrom,
			ind.ValidUntil,
			nullable(ind.StixID),
			ind.CreatedAt,
			ind.UpdatedAt,
		)
	}

	return r.sendBatch(ctx, batch)
}

func (r *PostgresRepository) SaveThreats(ctx context.Context, threats []domain.Threat) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO threats (name, description, malware_types, is_family, aliases, first_seen, last_seen, labels, stix_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10, now()), COALESCE($11, now()))
		ON CONFLICT (name) DO UPDATE SET
			stix_id    = COALESCE(threats.stix_id, EXCLUDED.stix_id),
			aliases    = EXCLUDED.aliases,
			labels     = EXCLUDED.labels,
			updated_at = now()
	`

	for _, t := range threats {
		batch.Queue(query,
			t.Name,
			t.Description,
			t.MalwareTypes,
			t.IsFamily,
			t.Aliases,
			t.FirstSeen,
			t.LastSeen,
			t.Labels,
			nullable(t.StixID),
			t.CreatedAt,
			t.UpdatedAt,
		)
	}

	return r.sendBatch(ctx, batch)
}

func (r *PostgresRepository) SaveThreatActors(ctx context.Context, actors []domain.ThreatActor) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO threat_actors (name, description, actor_types, aliases, first_seen, last_seen, goals, sophistication, resource_level, primary_motivation, labels, stix_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, now()), COALESCE($14, now()))
		ON CONFLICT (name) DO UPDATE SET
			stix_id    = COALESCE(threat_actors.stix_id, EXCLUDED.stix_id),
			aliases    = EXCLUDED.aliases,
			labels     = EXCLUDED.labels,
			updated_at = now()
	`

	for _, a := range actors {
		batch.Queue(query,
			a.Name,
			a.Description,
			a.ActorTypes,
			a.Aliases,
			a.FirstSeen,
			a.LastSeen,
			a.Goals,
			a.Sophistication,
			a.ResourceLevel,
			a.PrimaryMotivation,
			a.Labels,
			nullable(a.StixID),
			a.CreatedAt,
			a.UpdatedAt,
		)
	}

	return r.sendBatch(ctx, batch)
}

func (r *PostgresRepository) SaveVulnerabilities(ctx context.Context, vulns []domain.Vulnerability) error {
	batch := &pgx.Batch{}

	query := `
		INSERT INTO vulnerabilities (name, description, cve_id, labels, stix_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), COALESCE($7, now()))
		ON CONFLICT (cve_id) DO UPDATE SET
			stix_id    = COALESCE(vulnerabilities.stix_id, EXCLUDED.stix_id),
			labels     = EXCLUDED.labels,
			updated_at = now()
	`

	for _, v := range vulns {
		batch.Queue(query,
			v.Name,
			v.Description,
			v.CVEID,
			v.Labels,
			nullable(v.StixID),
			v.CreatedAt,
			v.UpdatedAt,
		)
	}

	return r.sendBatch(ctx, batch)
}

func (r *PostgresRepository) FindIndicatorByValue(ctx context.Context, value string) (*domain.Indicator, error) {
	query := `
		SELECT name, description, type, value, pattern, indicator_types, confidence, labels, source, valid_from, valid_until, COALESCE(stix_id, ''), created_at, updated_at
		FROM indicators
		WHERE value = $1
		LIMIT 1
	`

	var ind domain.Indicator

	err := r.db.QueryRow(ctx, query, value).Scan(
		&ind.Name,
		&ind.Description,
		&ind.Type,
		&ind.Value,
		&ind.Pattern,
		&ind.IndicatorTypes,
		&ind.Confidence,
		&ind.Labels,
		&ind.Source,
		&ind.ValidFrom,
		&ind.ValidUntil,
		&ind.StixID,
		&ind.CreatedAt,
		&ind.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &ind, nil
}

func (r *PostgresRepository) FindIndicatorsSince(ctx context.Context, since time.Time, limit int) ([]domain.Indicator, error) {
	query := `
		SELECT name, description, type, value, pattern, indicator_types, confidence, labels, source, valid_from, valid_until, COALESCE(stix_id, ''), created_at, updated_at
		FROM indicators
		WHERE updated_at >= $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicators since %v: %w", since, err)
	}
	defer rows.Close()

	var indicators []domain.Indicator

	for rows.Next() {
		var ind domain.Indicator
		err := rows.Scan(
			&ind.Name,
			&ind.Description,
			&ind.Type,
			&ind.Value,
			&ind.Pattern,
			&ind.IndicatorTypes,
			&ind.Confidence,
			&ind.Labels,
			&ind.Source,
			&ind.ValidFrom,
			&ind.ValidUntil,
			&ind.StixID,
			&ind.CreatedAt,
			&ind.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan indicator: %w", err)
		}
		indicators = append(indicators, ind)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return indicators, nil
}

func (r *PostgresRepository) sendBatch(ctx context.Context, batch *pgx.Batch) error {
	if batch.Len() == 0 {
		return nil
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	if _, err := br.Exec(); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// nullable maps "" to NULL so COALESCE keeps existing stix_id values.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
