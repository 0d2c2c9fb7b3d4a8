package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/repository/repotest"
)

func TestNewMemory(t *testing.T) {
	repotest.Run(t, NewMemory())
}

func TestNewFS(t *testing.T) {
	repo, err := NewFS(t.TempDir())
	require.NoError(t, err)
	repotest.Run(t, repo)
}

func TestRepository_SaveMissionKeepsTasksSeparate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	task := mission.NewTask("a", "writer", "draft", nil)
	task.MissionID = "m1"
	aMission := mission.New("m1", "acme", "goal", mission.PriorityNormal, task)
	require.NoError(t, repo.SaveMission(ctx, aMission))
	assert.Len(t, aMission.Tasks, 1)

	loaded, err := repo.LoadMission(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Tasks)
}
