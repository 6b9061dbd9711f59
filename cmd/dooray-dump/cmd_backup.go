package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"gopkg.in/dnaeon/go-vcr.v3/cassette"
	"gopkg.in/dnaeon/go-vcr.v3/recorder"

	"github.com/dooraytools/dooray-dump/dooray"
	"github.com/dooraytools/dooray-dump/download"
	"github.com/dooraytools/dooray-dump/localbackup"
)

var backupUsage = strings.TrimSpace(`
Walk the page tree of each selected project wiki and snapshot it into a fresh timestamped directory
under your --store: one numbered folder per page, holding content.md, metadata.json and the page's
downloaded images and attachments.
`)

// backupCmd represents the backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot project wikis to local Markdown trees",
	Long:  backupUsage,
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		debugLog("  PageLimit: %v\n", PageLimit)
		return runBackup(cmd.Context())
	},
}

var (
	PageLimit    int
	ProjectCodes []string
	AllProjects  bool
	KeepGoing    bool
	WithVCR      bool
)

func init() {
	rootCmd.AddCommand(backupCmd)

	backupCmd.Flags().IntVar(&PageLimit, "page-limit", -1, "maximum pages to back up per wiki, -1 for unlimited")
	backupCmd.Flags().StringSliceVar(&ProjectCodes, "projects", []string{}, "project codes to back up (default: pick interactively)")
	backupCmd.Flags().BoolVar(&AllProjects, "all", false, "back up every project that has a wiki")
	backupCmd.Flags().BoolVar(&KeepGoing, "keep-going", false, "continue with the next project if one backup fails")
	backupCmd.Flags().BoolVar(&WithVCR, "with-vcr", false, "use go-vcr to cache responses")
}

func runBackup(ctx context.Context) error {
	if LocalStore == "" {
		return fmt.Errorf("No location set for local store of wiki backups.  Use --store or set it in your config file.")
	}
	if Domain == "" {
		return fmt.Errorf("No Dooray web domain set.  Use --domain or set it in your config file.")
	}

	storePath, err := homedir.Expand(LocalStore)
	if err != nil {
		return fmt.Errorf("backup: couldn't expand homedir: %w", err)
	}
	if err := os.MkdirAll(storePath, 0750); err != nil {
		return fmt.Errorf("backup: couldn't create directory %s: %w", storePath, err)
	}

	tokenCmdOutput, err := exec.Command(AuthTokenCmd[0], AuthTokenCmd[1:]...).Output()
	if err != nil {
		return fmt.Errorf("backup: couldn't execute auth-token-cmd '%v': %w", AuthTokenCmd, err)
	}
	token := strings.Split(string(tokenCmdOutput), "\n")[0]

	api, err := dooray.NewAPI(BaseURL, token)
	if err != nil {
		return fmt.Errorf("backup: Dooray API creation failed: %w", err)
	}

	if WithVCR {
		// set up VCR recordings.
		opts := &recorder.Options{
			CassetteName:       "fixtures/dooray-stuff",
			Mode:               recorder.ModeReplayWithNewEpisodes,
			SkipRequestLatency: true,
			RealTransport:      http.DefaultTransport,
		}
		r, err := recorder.NewWithOptions(opts)
		if err != nil {
			return fmt.Errorf("backup: couldn't set up go-vcr recording: %w", err)
		}

		defer r.Stop() // Make sure recorder is stopped once done with it

		// Add a hook which removes Authorization headers from all requests
		hook := func(i *cassette.Interaction) error {
			delete(i.Request.Headers, "Authorization")
			return nil
		}
		r.AddHook(hook, recorder.AfterCaptureHook)
		r.SetReplayableInteractions(true)

		api.Client = r.GetDefaultClient()
	}

	log.Println("Listing Dooray projects...")
	projects, err := api.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("backup: couldn't list Dooray projects: %w", err)
	}

	selected, err := selectProjects(projects)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		fmt.Println("No projects selected, nothing to do.")
		return nil
	}

	log.Printf("Backing up %d project wiki(s)...\n", len(selected))

	staging, err := os.MkdirTemp("", "dooray-dump-staging-")
	if err != nil {
		return fmt.Errorf("backup: couldn't create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(selected)),
		mpb.PrependDecorators(
			decor.Name("projects:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
		),
	)

	totalPages := 0
	var failed []string
	for _, project := range selected {
		pages, err := backupProject(ctx, api, project, token, storePath, staging)
		if err != nil {
			if KeepGoing {
				log.Printf("Backup of project %s failed, continuing: %v\n", project.Code, err)
				failed = append(failed, project.Code)
				bar.Increment()
				continue
			}
			return fmt.Errorf("backup: project %s failed: %w", project.Code, err)
		}
		totalPages += pages
		bar.Increment()
	}

	// wait for our bar to complete and flush
	p.Wait()

	log.Printf("All done: %d page(s) across %d project(s).\n", totalPages, len(selected)-len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("backup: %d project(s) failed: %s", len(failed), strings.Join(failed, ", "))
	}

	return nil
}

func backupProject(ctx context.Context, api *dooray.API, project dooray.Project, token string, storePath string, staging string) (int, error) {
	log.Printf("Backing up wiki of project %s...\n", project.Code)

	fetcher, err := download.NewFetcher(Domain, project.Wiki.ID, token, filepath.Join(staging, project.Code))
	if err != nil {
		return 0, fmt.Errorf("backup: couldn't set up downloader for %s: %w", project.Code, err)
	}

	run := localbackup.WikiBackup{
		API:         api,
		Fetcher:     fetcher,
		Logger:      log.Default(),
		StorePath:   storePath,
		ProjectCode: project.Code,
		WikiID:      project.Wiki.ID,
		Domain:      Domain,
		PageLimit:   PageLimit,
		OnPage: func(subject string) {
			debugLog("page done: %s\n", subject)
		},
	}

	runDir, pages, err := run.Run(ctx)
	if err != nil {
		return 0, err
	}

	log.Printf("Project %s: %d page(s) -> %s\n", project.Code, pages, runDir)
	return pages, nil
}
