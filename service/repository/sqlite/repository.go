package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/rule"
	_ "modernc.org/sqlite"
)

// Repository implements repository.Service on SQLite. Records are stored as
// JSON documents next to the indexed columns used for filtering.
type Repository struct {
	DB *sql.DB
}

var _ repository.Service = (*Repository)(nil)

// Open opens (creating when needed) the database at location and applies migrations
func Open(location string) (*Repository, error) {
	if dir := filepath.Dir(location); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", location)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err = Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{DB: db}, nil
}

// Close closes the database
func (r *Repository) Close() error {
	return r.DB.Close()
}

// upsert inserts a record or updates it when the stored version matches
// expected; the candidate version is advanced on success.
func (r *Repository) upsert(ctx context.Context, table string, key []string, columns []string, args []any, record dao.Versioned) error {
	expected := record.GetVersion()
	record.SetVersion(expected + 1)
	data, err := json.Marshal(record)
	if err != nil {
		record.SetVersion(expected)
		return err
	}
	columns = append(columns, "version", "data")
	args = append(args, expected+1, string(data), expected)
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	var updates []string
	for _, column := range columns {
		updates = append(updates, fmt.Sprintf("%s=excluded.%s", column, column))
	}
	SQL := fmt.Sprintf(`INSERT INTO %s(%s) VALUES (%s) ON CONFLICT(%s) DO UPDATE SET %s WHERE %s.version=?`,
		table, strings.Join(columns, ","), placeholders, strings.Join(key, ","), strings.Join(updates, ","), table)
	res, err := r.DB.ExecContext(ctx, SQL, args...)
	if err != nil {
		record.SetVersion(expected)
		return fmt.Errorf("failed to save %s: %w", table, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		record.SetVersion(expected)
		return dao.ErrConcurrency
	}
	return nil
}

func decode[T any](rows *sql.Rows) ([]*T, error) {
	defer rows.Close()
	var ret []*T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		record := new(T)
		if err := json.Unmarshal([]byte(data), record); err != nil {
			return nil, err
		}
		ret = append(ret, record)
	}
	return ret, rows.Err()
}

func loadOne[T any](ctx context.Context, db *sql.DB, SQL string, args ...any) (*T, error) {
	var data string
	err := db.QueryRowContext(ctx, SQL, args...).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, dao.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	record := new(T)
	if err = json.Unmarshal([]byte(data), record); err != nil {
		return nil, err
	}
	return record, nil
}

func inClause(column string, values []string, args []any) (string, []any) {
	if len(values) == 0 {
		return "", args
	}
	for _, value := range values {
		args = append(args, value)
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")), args
}

// LoadMission returns mission with tasks
func (r *Repository) LoadMission(ctx context.Context, id string) (*mission.Mission, error) {
	aMission, err := loadOne[mission.Mission](ctx, r.DB, `SELECT data FROM missions WHERE id=?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %v: %w", id, err)
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT data FROM tasks WHERE mission_id=? ORDER BY seq, id`, id)
	if err != nil {
		return nil, err
	}
	if aMission.Tasks, err = decode[mission.Task](rows); err != nil {
		return nil, fmt.Errorf("failed to load mission %v tasks: %w", id, err)
	}
	return aMission, nil
}

// SaveMission saves mission record
func (r *Repository) SaveMission(ctx context.Context, aMission *mission.Mission) error {
	if aMission == nil {
		return dao.ErrNilEntity
	}
	if aMission.ID == "" {
		return dao.ErrInvalidID
	}
	return r.upsert(ctx, "missions", []string{"id"},
		[]string{"id", "client_id", "status", "created_at"},
		[]any{aMission.ID, aMission.ClientID, string(aMission.Status), aMission.CreatedAt}, aMission)
}

// ListMissions returns missions filtered by status
func (r *Repository) ListMissions(ctx context.Context, statuses ...mission.Status) ([]*mission.Mission, error) {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	where, args := inClause("status", values, nil)
	rows, err := r.DB.QueryContext(ctx, `SELECT data FROM missions WHERE 1=1`+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	return decode[mission.Mission](rows)
}

// SaveTask saves task record
func (r *Repository) SaveTask(ctx context.Context, task *mission.Task) error {
	if task == nil {
		return dao.ErrNilEntity
	}
	if task.ID == "" || task.MissionID == "" {
		return dao.ErrInvalidID
	}
	return r.upsert(ctx, "tasks", []string{"mission_id", "id"},
		[]string{"mission_id", "id", "seq", "status"},
		[]any{task.MissionID, task.ID, task.Seq, string(task.Status)}, task)
}

// SaveApprovalRequest saves request record
func (r *Repository) SaveApprovalRequest(ctx context.Context, request *approval.Request) error {
	if request == nil {
		return dao.ErrNilEntity
	}
	if request.ID == "" {
		return dao.ErrInvalidID
	}
	return r.upsert(ctx, "approval_requests", []string{"id"},
		[]string{"id", "mission_id", "status", "created_at"},
		[]any{request.ID, request.MissionID, string(request.Status), request.CreatedAt}, request)
}

// LoadApprovalRequest loads request record
func (r *Repository) LoadApprovalRequest(ctx context.Context, id string) (*approval.Request, error) {
	return loadOne[approval.Request](ctx, r.DB, `SELECT data FROM approval_requests WHERE id=?`, id)
}

// ListApprovalRequests lists request records
func (r *Repository) ListApprovalRequests(ctx context.Context, missionID string, statuses ...approval.Status) ([]*approval.Request, error) {
	SQL := `SELECT data FROM approval_requests WHERE 1=1`
	var args []any
	if missionID != "" {
		SQL += ` AND mission_id=?`
		args = append(args, missionID)
	}
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	where, args := inClause("status", values, args)
	rows, err := r.DB.QueryContext(ctx, SQL+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, err
	}
	return decode[approval.Request](rows)
}

// ListRules returns client rules applicable to agent type
func (r *Repository) ListRules(ctx context.Context, clientID, agentType string) ([]*rule.Rule, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT data FROM rules WHERE client_id IN ('', ?) ORDER BY id`, clientID)
	if err != nil {
		return nil, err
	}
	candidates, err := decode[rule.Rule](rows)
	if err != nil {
		return nil, err
	}
	var ret []*rule.Rule
	for _, candidate := range candidates {
		if candidate.Applies(clientID, agentType) {
			ret = append(ret, candidate)
		}
	}
	return ret, nil
}

// SaveRule saves rule record
func (r *Repository) SaveRule(ctx context.Context, aRule *rule.Rule) error {
	if aRule == nil {
		return dao.ErrNilEntity
	}
	if aRule.ID == "" {
		return dao.ErrInvalidID
	}
	return r.upsert(ctx, "rules", []string{"id"},
		[]string{"id", "client_id", "agent_type"},
		[]any{aRule.ID, aRule.ClientID, aRule.AgentType}, aRule)
}
