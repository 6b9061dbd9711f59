package main

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dooraytools/dooray-dump/dooray"
	"github.com/dooraytools/dooray-dump/internal/termfmt"
)

var listProjectsUsage = strings.TrimSpace(`
If you want to find out which of your Dooray projects carry a wiki, use this command.
`)

var listProjectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Print list of projects",
	Long:  listProjectsUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
		if err != nil {
			return fmt.Errorf("list: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
		}

		token := strings.Split(string(tokenCmdOutput), "\n")[0]
		api, err := dooray.NewAPI(BaseURL, token)
		if err != nil {
			return fmt.Errorf("list: couldn't instantiate Dooray API: %w", err)
		}

		log.Println("Listing Dooray projects...")
		projects, err := api.ListProjects(ctx)
		if err != nil {
			return fmt.Errorf("list: couldn't list Dooray projects: %w", err)
		}

		sort.Slice(projects, func(i, j int) bool { return projects[i].Code < projects[j].Code })

		withWiki := 0
		fmt.Printf("projects:\n")
		for _, p := range projects {
			if p.HasWiki() {
				// projects without a wiki are the boring ones; make the rest pop
				fmt.Printf("  - %v (wiki %s)\n", termfmt.Bold().V(p.Code), p.Wiki.ID)
				withWiki++
			} else {
				fmt.Printf("  - %v (no wiki)\n", termfmt.Italic().V(p.Code))
			}
		}

		log.Printf("Found %d projects, %d with a wiki.\n", len(projects), withWiki)

		return nil
	},
}

func init() {
	listCmd.AddCommand(listProjectsCmd)
}
