package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fwojciec/sift"
	"github.com/fwojciec/sift/crawl"
	"github.com/fwojciec/sift/fs"
)

// maxURLWidth bounds URLs in tabular output.
const maxURLWidth = 60

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	filter := sift.RunFilter{Limit: c.Limit}
	if c.Topic != "" {
		filter.TopicID = &c.Topic
	}
	if c.Status != "" {
		if c.Status != sift.RunOK && c.Status != sift.RunFail {
			err := sift.Errorf(sift.EINVALID, "status must be %q or %q", sift.RunOK, sift.RunFail)
			fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
			return err
		}
		filter.Status = &c.Status
	}

	runs, err := deps.Runs.FindRunSummaries(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'sift run' to start one.")
		return nil
	}

	for _, r := range runs {
		m := r.Meta
		fmt.Fprintf(deps.Stdout, "%s  %s  %-4s  %s  saved=%d dup=%d attempts=%d errors=%s\n",
			r.RunID, r.TopicID, r.Status, r.StartedAt.Format(time.RFC3339),
			m.ItemsSaved, m.Duplicates, m.Attempts.Total, crawl.FormatCounts(m.ErrorsByCode))
	}
	return nil
}

// Run executes the events command.
func (c *EventsCmd) Run(deps *Dependencies) error {
	filter := sift.AuditFilter{RunID: &c.RunID, Limit: c.Limit}
	if c.Step != "" {
		step := sift.Step(c.Step)
		filter.Step = &step
	}

	events, err := deps.Audit.FindEvents(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
		return err
	}

	if len(events) == 0 {
		fmt.Fprintf(deps.Stdout, "No events found for run %s.\n", c.RunID)
		return nil
	}

	for _, e := range events {
		line := fmt.Sprintf("%4d  %-19s  %-7s", e.Seq, e.Step, e.Status)
		if e.Provider != "" {
			line += "  " + e.Provider
		}
		if e.CandidateURL != "" {
			line += "  " + crawl.TruncateURL(e.CandidateURL, maxURLWidth)
		}
		if e.Error != nil {
			line += "  " + e.Error.Code
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	return nil
}

// Run executes the contents command.
func (c *ContentsCmd) Run(deps *Dependencies) error {
	contents, err := deps.Contents.FindContents(deps.Ctx, sift.ContentFilter{
		TopicID: &c.Topic,
		Limit:   c.Limit,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
		return err
	}

	if len(contents) == 0 {
		fmt.Fprintf(deps.Stdout, "No content saved for topic %s.\n", c.Topic)
		return nil
	}

	if c.Export != "" {
		return c.export(deps, contents)
	}

	for _, item := range contents {
		fmt.Fprintf(deps.Stdout, "%s  %s  %s\n    %s\n",
			item.ID, item.Domain, item.Title, crawl.TruncateURL(item.CanonicalURL, maxURLWidth))
	}
	return nil
}

// export writes contents to Export/<topic>, replacing any previous export
// of the topic only when every item was written.
func (c *ContentsCmd) export(deps *Dependencies, contents []*sift.Content) error {
	exporter := fs.NewExporter(c.Export, c.Topic)
	for _, item := range contents {
		if err := exporter.Save(deps.Ctx, item); err != nil {
			_ = exporter.Abort()
			fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
			return err
		}
	}
	if err := exporter.Commit(); err != nil {
		_ = exporter.Abort()
		return fmt.Errorf("failed to commit export: %w", err)
	}
	fmt.Fprintf(deps.Stdout, "Exported %d items to %s\n", len(contents), filepath.Join(c.Export, c.Topic))
	return nil
}
