package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"nexus-capture/internal/config"
	"nexus-capture/internal/domain"
	"nexus-capture/internal/service"
	apperrors "nexus-capture/pkg/errors"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(c *config.Container) *cli.App {
	app := &cli.App{
		Name:    "capturectl",
		Usage:   "Dispatch and inspect captures from the command line",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(c),
			historyCmd(c),
			showCmd(c),
			statsCmd(c),
			clearCmd(c),
			syncCmd(c),
			transcribeCmd(c),
			settingsCmd(c),
			statusCmd(c),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Dispatch a capture to every enabled destination (content from args or stdin)",
		ArgsUsage: "[content]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Capture category (idea, quote, code, insight, todo, book, research)"},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source URL"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Source page title"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags"},
		},
		Action: func(ctx *cli.Context) error {
			content := strings.Join(ctx.Args().Slice(), " ")
			if content == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(err)
				}
				content = text
			}

			input := domain.RawInput{
				Content:     content,
				Category:    domain.Category(ctx.String("category")),
				Source:      ctx.String("source"),
				SourceTitle: ctx.String("title"),
				Tags:        parseTags(ctx.String("tags")),
			}

			settings, err := c.SettingsRepository.Get(ctx.Context)
			if err != nil {
				return outputError(err)
			}
			result, err := c.CaptureService.Dispatch(ctx.Context, input, settings)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, result)
		},
	}
}

// historyCmd creates the history command.
func historyCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent captures, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: service.RecentCaptureLimit, Usage: "Maximum captures to list (0 for all)"},
		},
		Action: func(ctx *cli.Context) error {
			limit := ctx.Int("limit")
			if limit < 0 {
				return outputError(&domain.ValidationError{Field: "limit", Message: "must be a non-negative integer"})
			}
			captures, err := c.HistoryService.List(ctx.Context, limit)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, map[string]interface{}{
				"captures": captures,
				"count":    len(captures),
			})
		},
	}
}

// showCmd creates the show command.
func showCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a single capture",
		ArgsUsage: "<id>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return outputError(&domain.ValidationError{Field: "id", Message: "exactly one capture id is required"})
			}
			id, err := strconv.ParseInt(ctx.Args().First(), 10, 64)
			if err != nil {
				return outputError(&domain.ValidationError{Field: "id", Message: "must be an integer"})
			}
			capture, err := c.HistoryService.Find(ctx.Context, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, capture)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show today, week, book and total counters",
		Action: func(ctx *cli.Context) error {
			stats, err := c.HistoryService.Stats(ctx.Context, time.Now())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, stats)
		},
	}
}

// clearCmd creates the clear command.
func clearCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "clear",
		Usage: "Delete the local capture history",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Confirm deletion"},
		},
		Action: func(ctx *cli.Context) error {
			if !ctx.Bool("yes") {
				return outputError(&domain.ValidationError{Field: "yes", Message: "pass --yes to clear the history"})
			}
			if err := c.HistoryService.Clear(ctx.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, map[string]bool{"cleared": true})
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Re-send the most recent captures to the NEXUS API",
		Action: func(ctx *cli.Context) error {
			settings, err := c.SettingsRepository.Get(ctx.Context)
			if err != nil {
				return outputError(err)
			}
			report, err := c.SyncService.SyncRecent(ctx.Context, settings)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, report)
		},
	}
}

// transcribeCmd creates the transcribe command.
func transcribeCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:      "transcribe",
		Usage:     "Transcribe a recorded audio file (or stdin) through the NEXUS API",
		ArgsUsage: "[file]",
		Action: func(ctx *cli.Context) error {
			audio, err := readAudio(ctx)
			if err != nil {
				return outputError(err)
			}
			settings, err := c.SettingsRepository.Get(ctx.Context)
			if err != nil {
				return outputError(err)
			}
			result := c.TranscriptionService.Transcribe(ctx.Context, audio, settings)
			if !result.OK {
				return cli.Exit(result.Error, 1)
			}
			return outputJSON(ctx.App.Writer, result)
		},
	}
}

// settingsCmd creates the settings command. Without flags it prints the current settings.
func settingsCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or update the dispatch settings",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "nexus", Usage: "Enable or disable the NEXUS destination"},
			&cli.BoolFlag{Name: "notion", Usage: "Enable or disable the Notion destination"},
			&cli.StringFlag{Name: "notion-token", Usage: "Notion integration token (\"\" clears it)"},
			&cli.StringFlag{Name: "notion-database", Usage: "Notion database id (\"\" clears it)"},
			&cli.StringFlag{Name: "secret", Usage: "NEXUS API secret (\"\" clears it)"},
		},
		Action: func(ctx *cli.Context) error {
			patch := settingsPatch(ctx)
			var (
				settings domain.Settings
				err      error
			)
			if patch.IsEmpty() {
				settings, err = c.SettingsRepository.Get(ctx.Context)
			} else {
				settings, err = c.SettingsRepository.Update(ctx.Context, patch)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(ctx.App.Writer, settings.Public())
		},
	}
}

// statusCmd creates the status command.
func statusCmd(c *config.Container) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check the NEXUS API health endpoint",
		Action: func(ctx *cli.Context) error {
			status := c.HealthService.Check(ctx.Context)
			if err := outputJSON(ctx.App.Writer, status); err != nil {
				return err
			}
			if !status.Online {
				return cli.Exit("NEXUS API is offline", 1)
			}
			return nil
		},
	}
}

// settingsPatch collects only the flags the user actually passed.
func settingsPatch(ctx *cli.Context) domain.SettingsPatch {
	var patch domain.SettingsPatch
	if ctx.IsSet("nexus") {
		patch.NexusEnabled = domain.BoolPtr(ctx.Bool("nexus"))
	}
	if ctx.IsSet("notion") {
		patch.NotionEnabled = domain.BoolPtr(ctx.Bool("notion"))
	}
	if ctx.IsSet("notion-token") {
		patch.NotionToken = domain.StringPtr(ctx.String("notion-token"))
	}
	if ctx.IsSet("notion-database") {
		patch.NotionDatabaseID = domain.StringPtr(ctx.String("notion-database"))
	}
	if ctx.IsSet("secret") {
		patch.AstraPassword = domain.StringPtr(ctx.String("secret"))
	}
	return patch
}

// readAudio reads the audio file named by the first argument, or stdin when none is given.
func readAudio(ctx *cli.Context) ([]byte, error) {
	if ctx.NArg() > 0 {
		data, err := os.ReadFile(ctx.Args().First())
		if err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		return data, nil
	}
	if !stdinHasData() {
		return nil, domain.ErrInvalidAudio
	}
	return io.ReadAll(os.Stdin)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	appErr := apperrors.FromDomain(err)
	if appErr.Type == apperrors.ErrorTypeInternal {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Type, err.Error()), 1)
	}
	msg := appErr.Message
	if appErr.Details != "" {
		msg += " (" + appErr.Details + ")"
	}
	return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Type, msg), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
