package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/beacon/pkg/flow"
	"github.com/odvcencio/beacon/pkg/gather"
)

// defaultListLimit caps ListFlows when the caller passes no limit.
const defaultListLimit = 50

// FlowRecord is the archive metadata for one stored flow.
type FlowRecord struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	StepCount   int       `json:"stepCount"`
	GatherModes []string  `json:"gatherModes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StoredFlow is a fully loaded archive row: record metadata plus the decoded
// artifacts snapshot.
type StoredFlow struct {
	FlowRecord
	Artifacts *flow.FlowArtifacts `json:"artifacts"`
}

// SaveFlow archives an artifacts snapshot and returns its record. The flow
// name falls back to the snapshot's derived display name when no explicit
// name was recorded.
func (s *Store) SaveFlow(ctx context.Context, artifacts *flow.FlowArtifacts) (*FlowRecord, error) {
	if artifacts == nil || len(artifacts.GatherSteps) == 0 {
		return nil, flow.ErrEmptyFlow
	}

	payload, err := json.Marshal(artifacts)
	if err != nil {
		return nil, fmt.Errorf("encoding flow artifacts: %w", err)
	}

	record := &FlowRecord{
		ID:          strings.ToLower(ulid.Make().String()),
		Name:        artifacts.DisplayName(),
		StepCount:   len(artifacts.GatherSteps),
		GatherModes: gatherModes(artifacts.GatherSteps),
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO flows (flow_id, name, step_count, gather_modes, artifacts_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.execWithRetry(ctx, query,
		record.ID,
		record.Name,
		record.StepCount,
		strings.Join(record.GatherModes, ","),
		string(payload),
		record.CreatedAt,
	); err != nil {
		return nil, err
	}

	return record, nil
}

// GetFlow loads an archived flow with its artifacts snapshot. Returns
// ErrFlowNotFound when no row exists with the given id.
func (s *Store) GetFlow(ctx context.Context, id string) (*StoredFlow, error) {
	query := `
		SELECT flow_id, name, step_count, gather_modes, artifacts_json, created_at
		FROM flows WHERE flow_id = ?
	`
	var (
		stored  StoredFlow
		modes   string
		payload []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&stored.ID,
		&stored.Name,
		&stored.StepCount,
		&modes,
		&payload,
		&stored.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlowNotFound
	}
	if err != nil {
		return nil, err
	}
	stored.GatherModes = splitModes(modes)

	parsed, err := flow.ParseArtifacts(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding archived flow %s: %w", id, err)
	}
	stored.Artifacts = parsed

	return &stored, nil
}

// ListFlows returns archive records newest-first. A non-positive limit uses
// the default.
func (s *Store) ListFlows(ctx context.Context, limit int) ([]FlowRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	// flow_id breaks created_at ties: ULIDs sort by generation order.
	query := `
		SELECT flow_id, name, step_count, gather_modes, created_at
		FROM flows
		ORDER BY created_at DESC, flow_id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []FlowRecord{}
	for rows.Next() {
		var (
			record FlowRecord
			modes  string
		)
		if err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.StepCount,
			&modes,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		record.GatherModes = splitModes(modes)
		records = append(records, record)
	}

	return records, rows.Err()
}

// DeleteFlow removes an archived flow. Returns ErrFlowNotFound when no row
// exists with the given id.
func (s *Store) DeleteFlow(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM flows WHERE flow_id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFlowNotFound
	}
	return nil
}

// gatherModes summarizes the distinct gather modes across steps, in
// first-use order.
func gatherModes(steps []*flow.GatherStep) []string {
	var modes []string
	seen := make(map[gather.Mode]bool, len(steps))
	for _, step := range steps {
		mode := step.Mode()
		if mode == "" || seen[mode] {
			continue
		}
		seen[mode] = true
		modes = append(modes, string(mode))
	}
	return modes
}

func splitModes(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
