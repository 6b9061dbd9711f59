package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/exp/maps"

	"github.com/dooraytools/dooray-dump/dooray"
)

// selectProjects narrows the project list down to the wikis we'll back up:
// either everything (--all), an explicit code list (--projects), or an
// interactive pick.
func selectProjects(projects []dooray.Project) ([]dooray.Project, error) {
	// Only wiki-bearing projects are candidates; the API can hand back
	// duplicates across pages, so dedupe by ID first.
	byID := map[string]dooray.Project{}
	for _, p := range projects {
		if p.HasWiki() {
			byID[p.ID] = p
		}
	}

	candidates := maps.Values(byID)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Code < candidates[j].Code })

	if len(candidates) == 0 {
		return nil, fmt.Errorf("backup: no wiki-bearing projects available")
	}

	if AllProjects {
		return candidates, nil
	}

	if len(ProjectCodes) > 0 {
		wanted := map[string]bool{}
		for _, code := range ProjectCodes {
			wanted[code] = true
		}

		var selected []dooray.Project
		for _, p := range candidates {
			if wanted[p.Code] {
				selected = append(selected, p)
				delete(wanted, p.Code)
			}
		}
		if len(wanted) > 0 {
			missing := maps.Keys(wanted)
			sort.Strings(missing)
			return nil, fmt.Errorf("backup: unknown or wiki-less project code(s): %s", strings.Join(missing, ", "))
		}
		return selected, nil
	}

	return pickProjects(candidates)
}

// pickProjects runs the interactive picker: choose projects one at a time, or
// grab everything at once.
func pickProjects(candidates []dooray.Project) ([]dooray.Project, error) {
	const (
		itemAll  = "[all projects]"
		itemDone = "[done]"
	)

	var selected []dooray.Project
	picked := map[string]bool{}

	for {
		items := []string{itemAll, itemDone}
		for _, p := range candidates {
			if !picked[p.ID] {
				items = append(items, p.Code)
			}
		}

		prompt := promptui.Select{
			Label: fmt.Sprintf("Select a project to back up (%d selected)", len(selected)),
			Items: items,
			Size:  15,
		}

		_, choice, err := prompt.Run()
		if err != nil {
			return nil, fmt.Errorf("backup: project selection aborted: %w", err)
		}

		switch choice {
		case itemAll:
			return candidates, nil
		case itemDone:
			return selected, nil
		default:
			for _, p := range candidates {
				if p.Code == choice {
					selected = append(selected, p)
					picked[p.ID] = true
				}
			}
		}
	}
}
