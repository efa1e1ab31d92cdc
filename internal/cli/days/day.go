package days

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/unfilled/internal/calendar"
	"github.com/julianstephens/unfilled/internal/cli"
	"github.com/julianstephens/unfilled/internal/daystore"
	"github.com/julianstephens/unfilled/internal/models"
)

type DayCmd struct {
	Show      DayShowCmd      `cmd:"" help:"Show a day entry." default:"withargs"`
	List      DayListCmd      `cmd:"" help:"List stored days."`
	Note      DayNoteCmd      `cmd:"" help:"Add a note to a day."`
	Task      DayTaskCmd      `cmd:"" help:"Add a task to a day."`
	Cycle     DayCycleCmd     `cmd:"" help:"Cycle a task through planned, done and skipped."`
	Media     DayMediaCmd     `cmd:"" help:"Attach or clear the day's photo or video."`
	Lifecycle DayLifecycleCmd `cmd:"" help:"Pin a lifecycle state, or 'auto' to derive it again."`
	Delete    DayDeleteCmd    `cmd:"" help:"Delete a day entry."`
	Clear     DayClearCmd     `cmd:"" help:"Delete every day entry."`
	Stats     DayStatsCmd     `cmd:"" help:"Show storage usage of day entries."`
}

type DayShowCmd struct {
	Day  string `arg:"" optional:"" default:"today" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	JSON bool   `help:"Print the entry as JSON."`
}

func (c *DayShowCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	if c.JSON {
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal day entry: %w", err)
		}
		ctx.Println(string(data))
		return nil
	}
	printEntry(ctx, entry)
	return nil
}

func printEntry(ctx *cli.Context, e models.DayEntry) {
	ctx.Printf("%s %s  (%s, %s)\n", models.LifecycleGlyph(e.Lifecycle), e.ID, e.Lifecycle, e.Mode)
	if e.ManualLifecycle != nil {
		ctx.Println("  lifecycle pinned")
	}
	if e.Media != nil && e.Media.URL != "" {
		ctx.Printf("  %s: %s\n", e.Media.Type, e.Media.URL)
	}
	if len(e.Notes) > 0 {
		ctx.Println("\nNotes:")
		for _, n := range e.Notes {
			ctx.Printf("  [%s] %s\n", n.Type, n.Text)
		}
	}
	if len(e.Tasks) > 0 {
		ctx.Println("\nTasks:")
		for i, t := range e.Tasks {
			ctx.Printf("  %d. %s %s\n", i+1, models.TaskStatusGlyph(t.Status), t.Text)
		}
	}
	if e.IsEmpty() {
		ctx.Println("  (nothing recorded)")
	}
}

type DayListCmd struct {
	Month string `help:"Only days of this month (YYYY-MM)."`
}

func (c *DayListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Month != "" {
		if _, _, err := calendar.ParseMonthID(c.Month); err != nil {
			return err
		}
	}
	ids, err := ctx.Days().List(bg)
	if err != nil {
		return err
	}

	shown := 0
	for _, id := range ids {
		if c.Month != "" && !strings.HasPrefix(id, c.Month+"-") {
			continue
		}
		e := ctx.Days().Load(bg, id, "")
		ctx.Printf("%s %s  %d notes, %d tasks", models.LifecycleGlyph(e.Lifecycle), id, len(e.Notes), len(e.Tasks))
		if e.Media != nil && e.Media.URL != "" {
			ctx.Printf(", %s", e.Media.Type)
		}
		ctx.Println()
		shown++
	}
	if shown == 0 {
		ctx.Println("No days recorded.")
	}
	return nil
}

// save persists entry and explains a full store.
func save(ctx *cli.Context, entry models.DayEntry) (models.DayEntry, error) {
	saved, err := ctx.Days().Save(context.Background(), entry)
	if errors.Is(err, daystore.ErrStorageFull) {
		return saved, fmt.Errorf("%w; free space with 'day delete' or 'day clear'", err)
	}
	return saved, err
}

type DayNoteCmd struct {
	Day  string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	Text string `arg:"" help:"Note text."`
	Type string `help:"Note type." default:"free" enum:"caption,reflection,free"`
}

func (c *DayNoteCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("note text cannot be empty")
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	entry.Notes = append(entry.Notes, models.NewNote(c.Text, models.NoteType(c.Type)))
	saved, err := save(ctx, entry)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added note to %s (%d notes)\n", dayID, len(saved.Notes))
	return nil
}

type DayTaskCmd struct {
	Day  string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	Text string `arg:"" help:"Task text."`
}

func (c *DayTaskCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("task text cannot be empty")
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	entry.Tasks = append(entry.Tasks, models.NewTask(c.Text))
	saved, err := save(ctx, entry)
	if err != nil {
		return err
	}
	ctx.Printf("✓ Added task %d to %s\n", len(saved.Tasks), dayID)
	return nil
}

type DayCycleCmd struct {
	Day   string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	Index int    `arg:"" help:"Task number as shown by 'day show'."`
}

func (c *DayCycleCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	if c.Index < 1 || c.Index > len(entry.Tasks) {
		return fmt.Errorf("task %d does not exist on %s (%d tasks)", c.Index, dayID, len(entry.Tasks))
	}
	t := &entry.Tasks[c.Index-1]
	t.Status = models.CycleTaskStatus(t.Status)
	if _, err := save(ctx, entry); err != nil {
		return err
	}
	ctx.Printf("%s %s\n", models.TaskStatusGlyph(t.Status), t.Text)
	return nil
}

type DayMediaCmd struct {
	Day   string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	URL   string `arg:"" optional:"" help:"Media URL, usually an /uploads/ path."`
	Type  string `help:"Media type." default:"image" enum:"image,video"`
	Clear bool   `help:"Remove the media."`
}

func (c *DayMediaCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	switch {
	case c.Clear:
		entry.Media = nil
	case c.URL == "":
		return errors.New("a media URL or --clear is required")
	default:
		entry.Media = &models.Media{URL: c.URL, Type: models.MediaType(c.Type)}
	}
	saved, err := save(ctx, entry)
	if err != nil {
		return err
	}
	if saved.Media != nil && saved.Media.URL == "" {
		ctx.Println("⚠ Inline data and blob URLs are not stored; upload the file and use its URL instead.")
	}
	ctx.Printf("✓ Updated media for %s\n", dayID)
	return nil
}

type DayLifecycleCmd struct {
	Day   string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	State string `arg:"" enum:"auto,empty,draft,active,archived" help:"Lifecycle state, or auto."`
}

func (c *DayLifecycleCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	entry := ctx.Days().Load(context.Background(), dayID, "")
	if c.State == "auto" {
		entry.ManualLifecycle = nil
	} else {
		l := models.Lifecycle(c.State)
		entry.ManualLifecycle = &l
	}
	saved, err := save(ctx, entry)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s is %s\n", models.LifecycleGlyph(saved.Lifecycle), dayID, saved.Lifecycle)
	return nil
}

type DayDeleteCmd struct {
	Day string `arg:"" help:"Day (YYYY-MM-DD, today, yesterday, tomorrow)."`
	Yes bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *DayDeleteCmd) Run(ctx *cli.Context) error {
	dayID, err := ctx.ResolveDayID(c.Day)
	if err != nil {
		return err
	}
	if !c.Yes {
		ok, err := ctx.Confirm(fmt.Sprintf("Delete everything recorded on %s?", dayID))
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Cancelled.")
			return nil
		}
	}
	if err := ctx.Days().Delete(context.Background(), dayID); err != nil {
		return err
	}
	ctx.Printf("✓ Deleted %s\n", dayID)
	return nil
}
