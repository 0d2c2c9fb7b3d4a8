package definition

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/viant/mission/internal/yml"
	"github.com/viant/mission/model/document"
	"github.com/viant/mission/model/graph"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/policy"
)

// DecodeMission decodes a mission definition and validates its task graph
func DecodeMission(encoded []byte) (*mission.Mission, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(expandEnv(string(encoded))), &node); err != nil {
		return nil, fmt.Errorf("invalid mission definition: %w", err)
	}
	root := (*yml.Node)(&node).Root()
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid mission definition: expected mapping")
	}
	aMission := mission.New("", "", "", mission.PriorityNormal)
	err := root.Pairs(func(key string, value *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			aMission.ID = value.Value
		case "goal":
			aMission.Goal = value.Value
		case "clientid", "client":
			aMission.ClientID = value.Value
		case "priority":
			aMission.Priority = mission.ParsePriority(value.Value)
		case "policy":
			aPolicy := &policy.Policy{}
			if err := value.Decode(aPolicy); err != nil {
				return fmt.Errorf("invalid policy: %w", err)
			}
			aMission.Policy = aPolicy
		case "tasks":
			tasks, err := parseTasks(value)
			if err != nil {
				return err
			}
			aMission.Tasks = tasks
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid mission definition %v: %w", aMission.ID, err)
	}
	if _, err = graph.Build(aMission.ID, aMission.Tasks); err != nil {
		return nil, err
	}
	return aMission, nil
}

func parseTasks(node *yml.Node) ([]*mission.Task, error) {
	var ret []*mission.Task
	switch node.Kind {
	case yaml.MappingNode:
		err := node.Pairs(func(id string, value *yml.Node) error {
			task, err := parseTask(id, value)
			if err == nil {
				ret = append(ret, task)
			}
			return err
		})
		return ret, err
	case yaml.SequenceNode:
		err := node.Items(func(index int, value *yml.Node) error {
			id := ""
			if idNode := value.Lookup("id"); idNode != nil {
				id = idNode.Value
			}
			if id == "" {
				return fmt.Errorf("task #%d: id was empty", index)
			}
			task, err := parseTask(id, value)
			if err == nil {
				ret = append(ret, task)
			}
			return err
		})
		return ret, err
	}
	return nil, fmt.Errorf("tasks: expected mapping or sequence")
}

func parseTask(id string, node *yml.Node) (*mission.Task, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("task %v: expected mapping", id)
	}
	task := mission.NewTask(id, "", "", nil)
	err := node.Pairs(func(key string, value *yml.Node) error {
		switch strings.ToLower(key) {
		case "agent", "agenttype":
			task.AgentType = value.Value
		case "type", "tasktype":
			task.TaskType = value.Value
		case "contenttype":
			task.ContentType = value.Value
		case "priority":
			task.Priority = mission.ParsePriority(value.Value)
		case "dependson", "depends":
			task.DependsOn = value.Strings()
		case "input":
			input, ok := value.Interface().(map[string]interface{})
			if !ok && value.Tag != "!!null" {
				return fmt.Errorf("task %v: input: expected mapping", id)
			}
			task.Input = document.Document(input)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if task.AgentType == "" {
		return nil, fmt.Errorf("task %v: agent was empty", id)
	}
	if task.TaskType == "" {
		task.TaskType = task.AgentType
	}
	return task, nil
}
