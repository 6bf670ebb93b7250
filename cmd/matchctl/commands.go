// cmd/matchctl/commands.go
package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"matching-workers/internal/bootstrap"
	"matching-workers/pkg/registry"

	"github.com/spf13/cobra"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the activity registry",
	}

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate an activity registry file (default: the embedded registry)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(path)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "registry %s: %d activities OK\n", reg.Version, len(reg.Activities))
			for _, a := range reg.Activities {
				fmt.Fprintf(out, "  %-32s %s\n", a.TaskType, a.ID)
			}
			return nil
		},
	}
	validate.Flags().StringVar(&path, "path", "", "registry JSON file")
	cmd.AddCommand(validate)
	return cmd
}

func newMatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run matching for a lead",
	}

	var maxMatches int
	var exclude []string
	generate := &cobra.Command{
		Use:   "generate <leadId>",
		Short: "Rank eligible contractors for a lead without assigning them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withServices(ctx, func(svc *bootstrap.Services) error {
				result, err := svc.Engine.GenerateMatches(ctx, args[0], maxMatches, exclude)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	generate.Flags().IntVar(&maxMatches, "max", 0, "number of matches to return (default from config)")
	generate.Flags().StringSliceVar(&exclude, "exclude", nil, "contractor ids to leave out")
	cmd.AddCommand(generate)
	return cmd
}

func newLeadCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lead",
		Short: "Coordinator lead operations",
	}

	var limit int
	queue := &cobra.Command{
		Use:   "queue",
		Short: "List leads waiting for coordinator attention",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withServices(ctx, func(svc *bootstrap.Services) error {
				items, err := svc.Engine.GetLeadQueue(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, item := range items {
					flag := ""
					if item.NeedsManualAssignment {
						flag = "  MANUAL"
					}
					fmt.Fprintf(out, "%s  %-6s %-8s %-12s %-20s declined=%d%s\n",
						item.Lead.ID, item.Lead.Urgency, item.Lead.Status, item.Lead.ServiceType,
						item.Lead.Location.Province, item.DeclinedCount, flag)
				}
				fmt.Fprintf(out, "%d lead(s)\n", len(items))
				return nil
			})
		},
	}
	queue.Flags().IntVar(&limit, "limit", 100, "maximum leads to list")

	reassign := &cobra.Command{
		Use:   "reassign <leadId>",
		Short: "Rerun the reassignment cascade for a lead whose offers were all declined",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withServices(ctx, func(svc *bootstrap.Services) error {
				result, err := svc.Engine.ReassignLead(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.AddCommand(queue, reassign)
	return cmd
}

func newContractorsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contractors",
		Short: "Contractor directory maintenance",
	}

	reindex := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the contractor search index from postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return opts.withServices(ctx, func(svc *bootstrap.Services) error {
				if svc.Search == nil {
					return errors.New("contractor search is not backed by elasticsearch (matching.contractor_search)")
				}
				n, err := svc.Search.ReindexAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d contractor(s)\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(reindex)
	return cmd
}
