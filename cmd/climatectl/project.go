package main

import (
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"climatefund/internal/domain"
	"climatefund/internal/donation"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and inspect climate projects",
}

var createOpts struct {
	title       string
	description string
	target      string
	days        int
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project and wait for it to be mined",
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, err := domain.ParseEther(createOpts.target)
		if err != nil {
			return fmt.Errorf("--target: %w", err)
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		tx, err := s.transactor()
		if err != nil {
			return err
		}
		flow := &donation.Flow{Writer: tx, Chain: s.client, Logger: s.logger}
		hash, err := flow.CreateProject(s.ctx, s.contract, domain.CreateProjectInput{
			Title:           createOpts.title,
			Description:     createOpts.description,
			TargetAmountWei: target,
			DurationDays:    createOpts.days,
		})
		if err != nil {
			return fmt.Errorf("%s", donation.UserMessage(err))
		}
		return printJSON(cmd, map[string]string{"txHash": hash.Hex()})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a project as the 13-field tuple",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		p, err := s.client.GetProject(s.ctx, s.contract, id)
		if err != nil {
			return err
		}
		if !p.Exists() {
			return domain.ErrNotFound
		}
		return printJSON(cmd, p.Tuple())
	},
}

var projectProgressCmd = &cobra.Command{
	Use:   "progress <id>",
	Short: "Print the public donation progress of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseProjectID(args[0])
		if err != nil {
			return err
		}
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		pr, err := s.client.GetProjectProgress(s.ctx, s.contract, id)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]any{
			"currentAmount": pr.CurrentAmount.String(),
			"targetAmount":  pr.TargetAmount.String(),
			"donorCount":    pr.DonorCount.String(),
			"progress":      domain.CalculateProgress(pr.CurrentAmount, pr.TargetAmount),
			"currentEth":    domain.FormatEther(pr.CurrentAmount),
		})
	},
}

var listAll bool

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active projects, or every project with --all",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		var ids []*big.Int
		if listAll {
			ids, err = s.client.GetAllProjects(s.ctx, s.contract)
		} else {
			ids, err = s.client.GetActiveProjects(s.ctx, s.contract)
		}
		if err != nil {
			return err
		}
		projects, err := s.client.ListProjects(s.ctx, s.contract, ids, nil)
		if err != nil {
			return err
		}
		out := make([]map[string]any, 0, len(projects))
		for _, p := range projects {
			out = append(out, map[string]any{
				"id":       p.ID.String(),
				"title":    p.Title,
				"active":   p.IsActive,
				"target":   domain.FormatEther(p.TargetAmount),
				"raised":   domain.FormatEther(p.TotalDonationsPublic),
				"donors":   p.DonorCount.String(),
				"progress": domain.CalculateProgress(p.TotalDonationsPublic, p.TargetAmount),
			})
		}
		return printJSON(cmd, out)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print platform statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := connect(cmd)
		if err != nil {
			return err
		}
		defer s.cancel()
		st, err := s.client.GetPlatformStats(s.ctx, s.contract)
		if err != nil {
			return err
		}
		return printJSON(cmd, map[string]string{
			"totalProjects":        st.TotalProjects.String(),
			"activeProjects":       st.ActiveProjects.String(),
			"completedProjects":    st.CompletedProjects.String(),
			"totalDonationsAmount": st.TotalDonationsAmount.String(),
			"totalDonors":          st.TotalDonors.String(),
		})
	},
}

func parseProjectID(raw string) (*big.Int, error) {
	id, ok := new(big.Int).SetString(raw, 10)
	if !ok || id.Sign() <= 0 {
		return nil, domain.ErrInvalidProjectID
	}
	return id, nil
}

func init() {
	f := projectCreateCmd.Flags()
	f.StringVar(&createOpts.title, "title", "", "project title")
	f.StringVar(&createOpts.description, "description", "", "project description")
	f.StringVar(&createOpts.target, "target", "", "funding target in ETH")
	f.IntVar(&createOpts.days, "days", 30, "donation window in days (1-365)")
	projectListCmd.Flags().BoolVar(&listAll, "all", false, "include inactive projects")
}
