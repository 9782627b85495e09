package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/sift"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	summary, err := deps.Crawler.Run(deps.Ctx, c.Topic, sift.RawInput{
		Keywords: c.Keywords,
		Notes:    c.Notes,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", sift.ErrorMessage(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if summary.Status == sift.RunFail && summary.Error != nil {
		return sift.Errorf(summary.Error.Code, "run %s failed: %s", summary.RunID, summary.Error.Message)
	}
	return nil
}
