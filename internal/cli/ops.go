package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dmitrijs2005/zyntracker/internal/models"
	"github.com/dmitrijs2005/zyntracker/internal/remote"
	"github.com/dmitrijs2005/zyntracker/internal/stats"
)

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printEntry(verb string, e models.LogEntry) error {
	if a.format == FormatJSON {
		return a.printJSON(e)
	}
	_, err := fmt.Fprintf(a.out, "%s log #%d at %s\n", verb, e.ID, e.Time().Local().Format(time.DateTime))
	return err
}

// Add records an entry at when, parsed by ParseWhen.
func (a *App) Add(ctx context.Context, when string) error {
	ts, err := ParseWhen(when, a.now())
	if err != nil {
		return err
	}
	e, err := a.store.Add(ctx, ts)
	if err != nil {
		return err
	}
	return a.printEntry("Added", e)
}

// List prints every entry, newest first, with its age.
func (a *App) List(ctx context.Context) error {
	entries := a.store.All()
	if a.format == FormatJSON {
		return a.printJSON(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintln(a.out, "No logs yet.")
		return err
	}

	now := a.now()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tAGE")
	for _, e := range entries {
		t := e.Time()
		fmt.Fprintf(tw, "%d\t%s\t%s\n", e.ID, t.Local().Format(time.DateTime), humanize.RelTime(t, now, "ago", "from now"))
	}
	return tw.Flush()
}

func (a *App) Edit(ctx context.Context, id int64, when string) error {
	ts, err := ParseWhen(when, a.now())
	if err != nil {
		return err
	}
	e, err := a.store.Update(ctx, id, ts)
	if err != nil {
		return err
	}
	return a.printEntry("Updated", e)
}

func (a *App) Remove(ctx context.Context, id int64) error {
	if err := a.store.Remove(ctx, id); err != nil {
		return err
	}
	if a.format == FormatJSON {
		return a.printJSON(map[string]int64{"removed": id})
	}
	_, err := fmt.Fprintf(a.out, "Removed log #%d\n", id)
	return err
}

// Export writes the CSV export to path, or to the output when path is
// empty.
func (a *App) Export(ctx context.Context, path string) error {
	if path == "" {
		if err := a.store.WriteCSV(a.out); err != nil {
			return err
		}
		_, err := fmt.Fprintln(a.out)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := a.store.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Exported %d logs to %s\n", len(a.store.All()), path)
	return err
}

// Stats prints the daily, weekly and monthly rollups. A window of zero uses
// the configured default.
func (a *App) Stats(ctx context.Context, window int) error {
	if window == 0 {
		window = a.defaultWindow()
	}
	st := a.store.Stats(stats.ClampWindow(window), a.now())
	if a.format == FormatJSON {
		return a.printJSON(st)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	section := func(title string, buckets []models.Bucket) {
		fmt.Fprintf(tw, "%s\t\n", title)
		if len(buckets) == 0 {
			fmt.Fprintln(tw, "  (none)\t")
		}
		for _, b := range buckets {
			fmt.Fprintf(tw, "  %s\t%d\n", b.Period, b.Count)
		}
	}
	section(fmt.Sprintf("Daily (last %d days)", stats.ClampWindow(window)), st.Daily)
	section("Weekly", st.Weekly)
	section("Monthly", st.Monthly)
	return tw.Flush()
}

type syncStatus struct {
	State  models.SyncState   `json:"state"`
	Config *models.SyncConfig `json:"config"`
}

func (a *App) SyncStatus(ctx context.Context) error {
	st := a.store.SyncState()
	cfg, ok := a.store.Config()
	if a.format == FormatJSON {
		out := syncStatus{State: st}
		if ok {
			redacted := cfg.Redacted()
			out.Config = &redacted
		}
		return a.printJSON(out)
	}

	if !ok {
		_, err := fmt.Fprintln(a.out, "Sync: not configured")
		return err
	}
	enabled := "disabled (no token)"
	if st.Enabled {
		enabled = "enabled"
	}
	fmt.Fprintf(a.out, "Sync:   %s\n", enabled)
	fmt.Fprintf(a.out, "Remote: %s/%s@%s:%s\n", cfg.Owner, cfg.Repo, cfg.Branch, cfg.Path)
	if st.Enabled {
		fmt.Fprintf(a.out, "Status: %s\n", st.Status)
		if st.Message != "" {
			fmt.Fprintf(a.out, "        %s\n", st.Message)
		}
	}
	if st.LastSyncedAt != nil {
		fmt.Fprintf(a.out, "Last:   %s (%s)\n", st.LastSyncedAt.Local().Format(time.DateTime), humanize.RelTime(*st.LastSyncedAt, a.now(), "ago", "from now"))
	}
	return nil
}

// SyncSet saves cfg. An empty token is read from the terminal unless
// prompt is false.
func (a *App) SyncSet(ctx context.Context, cfg models.SyncConfig, prompt bool) error {
	if cfg.Token == "" && prompt {
		name := remote.DisplayName("")
		if a.cfg != nil {
			name = remote.DisplayName(a.cfg.RemoteDriver)
		}
		tok, err := GetToken(a.out, name)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		cfg.Token = tok
	}
	if err := a.store.SaveConfig(ctx, cfg); err != nil {
		return err
	}
	return a.SyncStatus(ctx)
}

func (a *App) SyncClear(ctx context.Context) error {
	if err := a.store.ClearConfig(ctx); err != nil {
		return err
	}
	return a.SyncStatus(ctx)
}

func (a *App) SyncReload(ctx context.Context) error {
	if err := a.store.ReloadFromRemote(ctx); err != nil {
		return err
	}
	return a.SyncStatus(ctx)
}
