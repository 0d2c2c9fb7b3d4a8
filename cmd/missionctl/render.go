package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/viper"

	"github.com/viant/mission/model/graph"
	"github.com/viant/mission/model/mission"
	"github.com/viant/mission/service/approval"
	"github.com/viant/mission/service/rule"
)

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable(title string, header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle(title)
	tw.AppendHeader(header)
	return tw
}

func printMission(aMission *mission.Mission, pending []*approval.Request) error {
	if viper.GetBool("json") {
		return printJSON(map[string]interface{}{"mission": aMission, "tasks": aMission.Tasks, "pending": pending})
	}
	title := fmt.Sprintf("%v [%v] %v", aMission.ID, aMission.Status, aMission.Goal)
	if aMission.Reason != "" {
		title += " (" + aMission.Reason + ")"
	}
	tw := newTable(title, table.Row{"Task", "Agent", "Type", "Status", "Depends On", "Approval", "Reason"})
	for _, task := range aMission.Tasks {
		tw.AppendRow(table.Row{task.ID, task.AgentType, task.TaskType, task.Status, strings.Join(task.DependsOn, ","), task.ApprovalID, task.Reason})
	}
	tw.Render()
	if len(pending) == 0 {
		return nil
	}
	rw := newTable("Pending review", table.Row{"Request", "Task", "Agent", "Status", "Content"})
	for _, request := range pending {
		rw.AppendRow(table.Row{request.ID, request.TaskID, request.AgentType, request.Status, abbreviate(request.Content.Text(), 60)})
	}
	rw.Render()
	return nil
}

func printMissions(missions []*mission.Mission) error {
	if viper.GetBool("json") {
		return printJSON(missions)
	}
	tw := newTable("Missions", table.Row{"ID", "Client", "Priority", "Status", "Goal", "Created"})
	for _, aMission := range missions {
		tw.AppendRow(table.Row{aMission.ID, aMission.ClientID, aMission.Priority, aMission.Status, aMission.Goal, aMission.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	tw.Render()
	return nil
}

func printGraph(aMission *mission.Mission, g *graph.Graph) error {
	if viper.GetBool("json") {
		return printJSON(map[string]interface{}{"mission": aMission, "tasks": aMission.Tasks, "roots": g.Roots()})
	}
	tw := newTable(fmt.Sprintf("%v: %v tasks, roots %v", aMission.ID, g.Len(), strings.Join(g.Roots(), ",")),
		table.Row{"Task", "Agent", "Type", "Priority", "Depends On", "Downstream"})
	for _, task := range g.Tasks() {
		tw.AppendRow(table.Row{task.ID, task.AgentType, task.TaskType, task.Priority, strings.Join(task.DependsOn, ","), strings.Join(g.Downstream(task.ID), ",")})
	}
	tw.Render()
	return nil
}

func printRules(rules []*rule.Rule) error {
	if viper.GetBool("json") {
		return printJSON(rules)
	}
	tw := newTable("Rules", table.Row{"#", "ID", "Client", "Agent", "Priority", "Conditions", "Verdict"})
	for i, aRule := range rules {
		kinds := make([]string, 0, len(aRule.Conditions))
		for _, condition := range aRule.Conditions {
			if condition != nil {
				kinds = append(kinds, string(condition.Kind))
			}
		}
		tw.AppendRow(table.Row{i + 1, aRule.ID, aRule.ClientID, aRule.AgentType, aRule.Priority, strings.Join(kinds, " & "), aRule.Action.Verdict})
	}
	tw.Render()
	return nil
}

func abbreviate(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return text
}
