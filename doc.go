// Package mission provides a mission orchestration engine: a client mission
// is decomposed into dependent agent tasks, executed in dependency order with
// retries, and task output is gated through ordered auto-approval rules with
// human review as the fallback.
//
// The engine is composed of pluggable service layers:
//
//   - scheduler - ticks missions through their task graph
//   - executor  - invokes agents with deadlines and retry policy
//   - rule      - evaluates auto-approval rules
//   - gateway   - approval requests and reviewer decisions
//   - repository - memory, fs or sqlite persistence
//
// End-users typically interact with the engine via the Runtime exposed by
// the root package:
//
//	srv, _ := mission.New(mission.WithAgent("writer", writer))
//	rt := srv.Runtime()
//	_, _ = rt.LoadRules(ctx, "rules.yaml")
//	aMission, _ := rt.LoadMission(ctx, "launch.yaml")
//	aMission, _ = rt.Submit(ctx, aMission)
//	_ = rt.Start(ctx)
//	done, _ := rt.WaitForMission(ctx, aMission.ID, time.Minute)
package mission
