package kv

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/dao"
	"github.com/viant/mission/service/dao/criteria"
	"github.com/viant/mission/service/dao/store"
	"github.com/viant/mission/service/repository"
	"github.com/viant/mission/service/rule"
)

// Parameter names used to filter dao lists
const (
	paramMissionID = "MissionID"
	paramStatus    = "Status"
	paramClientID  = "ClientID"
)

// Repository implements repository.Service with generic dao stores
type Repository struct {
	missions dao.Service[string, mission.Mission]
	tasks    dao.Service[string, mission.Task]
	requests dao.Service[string, approval.Request]
	rules    dao.Service[string, rule.Rule]
}

var _ repository.Service = (*Repository)(nil)

// TaskKey returns task record key, task ids are unique within a mission only
func TaskKey(t *mission.Task) string {
	return t.MissionID + "_" + t.ID
}

func missionKey(m *mission.Mission) string  { return m.ID }
func requestKey(r *approval.Request) string { return r.ID }
func ruleKey(r *rule.Rule) string           { return r.ID }

func missionFilter(m *mission.Mission, parameters []*dao.Parameter) bool {
	return criteria.Match(func(name string) (string, bool) {
		switch name {
		case paramStatus:
			return string(m.Status), true
		case paramClientID:
			return m.ClientID, true
		}
		return "", false
	}, parameters)
}

func taskFilter(t *mission.Task, parameters []*dao.Parameter) bool {
	return criteria.Match(func(name string) (string, bool) {
		switch name {
		case paramMissionID:
			return t.MissionID, true
		case paramStatus:
			return string(t.Status), true
		}
		return "", false
	}, parameters)
}

func requestFilter(r *approval.Request, parameters []*dao.Parameter) bool {
	return criteria.Match(func(name string) (string, bool) {
		switch name {
		case paramMissionID:
			return r.MissionID, true
		case paramStatus:
			return string(r.Status), true
		}
		return "", false
	}, parameters)
}

func ruleFilter(r *rule.Rule, parameters []*dao.Parameter) bool {
	return criteria.Match(func(name string) (string, bool) {
		if name == paramClientID {
			return r.ClientID, true
		}
		return "", false
	}, parameters)
}

// New creates repository with supplied stores
func New(missions dao.Service[string, mission.Mission], tasks dao.Service[string, mission.Task],
	requests dao.Service[string, approval.Request], rules dao.Service[string, rule.Rule]) *Repository {
	return &Repository{missions: missions, tasks: tasks, requests: requests, rules: rules}
}

// NewMemory creates in-memory repository
func NewMemory() *Repository {
	return New(
		store.NewMemoryStore[string, mission.Mission](missionKey, store.WithClone[string]((*mission.Mission).Clone), store.WithFilter[string](missionFilter)),
		store.NewMemoryStore[string, mission.Task](TaskKey, store.WithClone[string]((*mission.Task).Clone), store.WithFilter[string](taskFilter)),
		store.NewMemoryStore[string, approval.Request](requestKey, store.WithClone[string]((*approval.Request).Clone), store.WithFilter[string](requestFilter)),
		store.NewMemoryStore[string, rule.Rule](ruleKey, store.WithClone[string]((*rule.Rule).Clone), store.WithFilter[string](ruleFilter)),
	)
}

// NewFS creates repository persisting JSON files under baseURL (any afs URL)
func NewFS(baseURL string) (*Repository, error) {
	baseURL = url.Normalize(baseURL, file.Scheme)
	missions, err := store.NewFSStore[mission.Mission](url.Join(baseURL, "missions"), missionKey, store.WithFSFilter(missionFilter))
	if err != nil {
		return nil, err
	}
	tasks, err := store.NewFSStore[mission.Task](url.Join(baseURL, "tasks"), TaskKey, store.WithFSFilter(taskFilter))
	if err != nil {
		return nil, err
	}
	requests, err := store.NewFSStore[approval.Request](url.Join(baseURL, "requests"), requestKey, store.WithFSFilter(requestFilter))
	if err != nil {
		return nil, err
	}
	rules, err := store.NewFSStore[rule.Rule](url.Join(baseURL, "rules"), ruleKey, store.WithFSFilter(ruleFilter))
	if err != nil {
		return nil, err
	}
	return New(missions, tasks, requests, rules), nil
}

// LoadMission returns mission with tasks
func (r *Repository) LoadMission(ctx context.Context, id string) (*mission.Mission, error) {
	aMission, err := r.missions.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %v: %w", id, err)
	}
	tasks, err := r.tasks.List(ctx, &dao.Parameter{Name: paramMissionID, Value: id})
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %v tasks: %w", id, err)
	}
	sortTasks(tasks)
	aMission.Tasks = tasks
	return aMission, nil
}

func sortTasks(tasks []*mission.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Seq != tasks[j].Seq {
			return tasks[i].Seq < tasks[j].Seq
		}
		return tasks[i].ID < tasks[j].ID
	})
}

// SaveMission saves mission record
func (r *Repository) SaveMission(ctx context.Context, aMission *mission.Mission) error {
	if aMission == nil {
		return dao.ErrNilEntity
	}
	record := *aMission
	record.Tasks = nil
	if err := r.missions.Save(ctx, &record); err != nil {
		return err
	}
	aMission.Version = record.Version
	return nil
}

// ListMissions returns missions filtered by status
func (r *Repository) ListMissions(ctx context.Context, statuses ...mission.Status) ([]*mission.Mission, error) {
	var parameters []*dao.Parameter
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		parameters = append(parameters, &dao.Parameter{Name: paramStatus, Value: values})
	}
	return r.missions.List(ctx, parameters...)
}

// SaveTask saves task record
func (r *Repository) SaveTask(ctx context.Context, task *mission.Task) error {
	if task == nil {
		return dao.ErrNilEntity
	}
	if task.MissionID == "" {
		return fmt.Errorf("task %v: %w: mission id was empty", task.ID, dao.ErrInvalidID)
	}
	return r.tasks.Save(ctx, task)
}

// SaveApprovalRequest saves request record
func (r *Repository) SaveApprovalRequest(ctx context.Context, request *approval.Request) error {
	if request == nil {
		return dao.ErrNilEntity
	}
	return r.requests.Save(ctx, request)
}

// LoadApprovalRequest loads request record
func (r *Repository) LoadApprovalRequest(ctx context.Context, id string) (*approval.Request, error) {
	return r.requests.Load(ctx, id)
}

// ListApprovalRequests lists request records
func (r *Repository) ListApprovalRequests(ctx context.Context, missionID string, statuses ...approval.Status) ([]*approval.Request, error) {
	var parameters []*dao.Parameter
	if missionID != "" {
		parameters = append(parameters, &dao.Parameter{Name: paramMissionID, Value: missionID})
	}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, status := range statuses {
			values[i] = string(status)
		}
		parameters = append(parameters, &dao.Parameter{Name: paramStatus, Value: values})
	}
	ret, err := r.requests.List(ctx, parameters...)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ret, func(i, j int) bool { return ret[i].CreatedAt.Before(ret[j].CreatedAt) })
	return ret, nil
}

// ListRules returns client rules applicable to agent type
func (r *Repository) ListRules(ctx context.Context, clientID, agentType string) ([]*rule.Rule, error) {
	candidates, err := r.rules.List(ctx)
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
	return r.rules.Save(ctx, aRule)
}
