package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viant/mission"
	"github.com/viant/mission/model/graph"
	"github.com/viant/mission/service/agent"
	"github.com/viant/mission/service/approval"
)

var rootCmd = &cobra.Command{
	Use:   "missionctl",
	Short: "Mission engine CLI",
	Long: `missionctl runs missions: dependent agent tasks whose output is gated by
auto-approval rules with human review as the fallback.
- Mission: a YAML definition with goal, client, policy and tasks (dependsOn builds the graph).
- Rules: a YAML rule set; the first firing rule approves or rejects content.
- Review: requests no rule decided stay pending until resolved with 'missionctl resolve'.
Agents are not configured from the CLI; every task is served by the echo agent.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(runCmd(), validateCmd(), statusCmd(), resolveCmd(), rulesCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix(mission.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// withRuntime creates a service from config; approval events are disabled
// since the CLI drives missions in the foreground.
func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *mission.Runtime) error) error {
	config, err := mission.LoadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}
	config.Events.Enabled = false
	if config.Log.Location == "" {
		config.Log.Level = "ERROR"
	}
	srv, err := mission.New(mission.WithConfig(config), mission.WithFallbackAgent(agent.Echo()))
	if err != nil {
		return err
	}
	defer srv.Close()
	return fn(ctx, srv.Runtime())
}

func absolute(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	if ret, err := filepath.Abs(location); err == nil {
		return ret
	}
	return location
}

func runCmd() *cobra.Command {
	var rules []string
	var approveAll bool
	cmd := &cobra.Command{
		Use:   "run <mission.yaml>",
		Short: "Submit a mission and drive it until it completes or waits on review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *mission.Runtime) error {
				for _, location := range rules {
					if _, err := rt.LoadRules(ctx, absolute(location)); err != nil {
						return err
					}
				}
				aMission, err := rt.LoadMission(ctx, absolute(args[0]))
				if err != nil {
					return err
				}
				if aMission, err = rt.Submit(ctx, aMission); err != nil {
					return err
				}
				for {
					if aMission, err = rt.Run(ctx, aMission.ID); err != nil {
						return err
					}
					pending, err := rt.PendingRequests(ctx, approval.WithMissionID(aMission.ID))
					if err != nil {
						return err
					}
					if !approveAll || len(pending) == 0 {
						return printMission(aMission, pending)
					}
					for _, request := range pending {
						if _, err = rt.Resolve(ctx, request.ID, approval.Approve(nil)); err != nil {
							return err
						}
					}
				}
			})
		},
	}
	cmd.Flags().StringArrayVarP(&rules, "rules", "r", nil, "rule set file (repeatable)")
	cmd.Flags().BoolVar(&approveAll, "approve", false, "approve requests left for human review")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <mission.yaml>",
		Short: "Check a mission definition and its task graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *mission.Runtime) error {
				aMission, err := rt.LoadMission(ctx, absolute(args[0]))
				if err != nil {
					return err
				}
				g, err := graph.Build(aMission.ID, aMission.Tasks)
				if err != nil {
					return err
				}
				return printGraph(aMission, g)
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [missionID]",
		Short: "Show a mission or list missions of a persistent store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *mission.Runtime) error {
				if len(args) == 0 {
					missions, err := rt.Missions(ctx)
					if err != nil {
						return err
					}
					return printMissions(missions)
				}
				aMission, err := rt.Mission(ctx, args[0])
				if err != nil {
					return err
				}
				pending, err := rt.PendingRequests(ctx, approval.WithMissionID(aMission.ID))
				if err != nil {
					return err
				}
				return printMission(aMission, pending)
			})
		},
	}
}

func resolveCmd() *cobra.Command {
	var reject, reviewer string
	cmd := &cobra.Command{
		Use:   "resolve <requestID>",
		Short: "Approve or reject a pending approval request and resume its mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *mission.Runtime) error {
				decision := approval.Approve(nil)
				if reject != "" {
					decision = approval.Reject(reject)
				}
				decision.Reviewer = reviewer
				request, err := rt.Resolve(ctx, args[0], decision)
				if err != nil {
					return err
				}
				aMission, err := rt.Run(ctx, request.MissionID)
				if err != nil {
					return err
				}
				pending, err := rt.PendingRequests(ctx, approval.WithMissionID(aMission.ID))
				if err != nil {
					return err
				}
				return printMission(aMission, pending)
			})
		},
	}
	cmd.Flags().StringVar(&reject, "reject", "", "reject with reason")
	cmd.Flags().StringVar(&reviewer, "reviewer", os.Getenv("USER"), "reviewer name")
	return cmd
}

func rulesCmd() *cobra.Command {
	var clientID, agentType string
	cmd := &cobra.Command{
		Use:   "rules <rules.yaml>",
		Short: "Show rules in evaluation order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *mission.Runtime) error {
				if _, err := rt.LoadRules(ctx, absolute(args[0])); err != nil {
					return err
				}
				rules, err := rt.Rules(ctx, clientID, agentType)
				if err != nil {
					return err
				}
				return printRules(rules)
			})
		},
	}
	cmd.Flags().StringVar(&clientID, "client", "", "client id")
	cmd.Flags().StringVar(&agentType, "agent", "", "agent type")
	return cmd
}
