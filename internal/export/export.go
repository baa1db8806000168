// Package export packs notes into a zip of markdown files grouped into folders.
package export

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/harrylevesque/revisitor/internal/content"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/utils"
)

const (
	maxSlugRunes = 50
	dateLayout   = "2006-01-02"
	createdAt    = "2006-01-02 15:04:05 MST"
)

var ErrNoNotes = errors.New("No notes to export")

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Exporter renders dates in a fixed location and relative to a clock.
type Exporter struct {
	loc *time.Location
	now func() time.Time
}

type Option func(*Exporter)

func WithLocation(loc *time.Location) Option {
	return func(e *Exporter) { e.loc = loc }
}

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func New(opts ...Option) *Exporter {
	e := &Exporter{loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarises a finished archive.
type Result struct {
	Notes   int `json:"notes"`
	Folders int `json:"folders"`
}

// Message is the success notification text.
func (r Result) Message() string {
	return fmt.Sprintf("Exported %d notes in %d folders.", r.Notes, r.Folders)
}

func (e *Exporter) created(note *nostr.Event) time.Time {
	return note.CreatedAt.Time().In(e.loc)
}

// ToMarkdown renders a single note with its metadata header.
func (e *Exporter) ToMarkdown(note *nostr.Event) string {
	at := e.created(note)
	var b strings.Builder
	fmt.Fprintf(&b, "# Note from %s\n\n", at.Format(dateLayout))
	fmt.Fprintf(&b, "**Created:** %s\n", at.Format(createdAt))
	fmt.Fprintf(&b, "**Time ago:** %s\n", utils.TimeAgo(at, e.now()))
	if tags := content.Hashtags(note.Content); len(tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(tags, ", "))
	}
	fmt.Fprintf(&b, "**Note ID:** `%s`\n\n", note.ID)
	b.WriteString("---\n\n")
	b.WriteString(note.Content)
	b.WriteString("\n")
	return b.String()
}

// FolderName is the first hashtag without '#', or YYYY-MM of the note.
func (e *Exporter) FolderName(note *nostr.Event) string {
	if tags := content.Hashtags(note.Content); len(tags) > 0 {
		return strings.TrimPrefix(tags[0], "#")
	}
	return e.created(note).Format("2006-01")
}

// FileName is YYYY-MM-DD_HH-MM-SS_<slug>.md.
func (e *Exporter) FileName(note *nostr.Event) string {
	at := e.created(note)
	first, _, _ := strings.Cut(note.Content, "\n")
	return fmt.Sprintf("%s_%s_%s.md", at.Format(dateLayout), at.Format("15-04-05"), Slug(first))
}

// Slug turns a line of text into a lowercase, hyphenated file name part.
func Slug(line string) string {
	r := []rune(line)
	if len(r) > maxSlugRunes {
		r = r[:maxSlugRunes]
	}
	s := fold(string(r))
	s = unsafeChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = strings.ToLower(s)
	if s == "" {
		return "note"
	}
	return s
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// ArchiveName is the download name for an export made on day.
func ArchiveName(day time.Time) string {
	return fmt.Sprintf("nostr-notes-export-%s.zip", day.Format(dateLayout))
}

func (e *Exporter) ArchiveName() string {
	return ArchiveName(e.now().In(e.loc))
}

type group struct {
	name  string
	notes []*nostr.Event
}

// groups keeps folders in first-seen order.
func (e *Exporter) groups(notes []*nostr.Event) []*group {
	var out []*group
	index := map[string]*group{}
	for _, n := range notes {
		name := e.FolderName(n)
		g, ok := index[name]
		if !ok {
			g = &group{name: name}
			index[name] = g
			out = append(out, g)
		}
		g.notes = append(g.notes, n)
	}
	return out
}

// Summary renders README.md for the archive.
func (e *Exporter) Summary(total int, groups []*group) string {
	var b strings.Builder
	b.WriteString("# Notes Export Summary\n\n")
	fmt.Fprintf(&b, "**Export Date:** %s\n", e.now().In(e.loc).Format(createdAt))
	fmt.Fprintf(&b, "**Total Notes:** %d\n", total)
	fmt.Fprintf(&b, "**Folders:** %d\n\n", len(groups))
	b.WriteString("## Folder Breakdown\n\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "- **%s**: %d notes\n", g.name, len(g.notes))
	}
	b.WriteString("\n## About This Export\n\n")
	b.WriteString("This export contains your Nostr notes organized into folders and converted to Markdown format. ")
	b.WriteString("Notes are grouped by their primary hashtag, or by year-month if no hashtags are present.\n\n")
	b.WriteString("Each note includes metadata such as creation date, note ID, and any hashtags found in the content.\n")
	return b.String()
}

// WriteZip writes the archive for notes to w.
func (e *Exporter) WriteZip(w io.Writer, notes []*nostr.Event) (Result, error) {
	if len(notes) == 0 {
		return Result{}, ErrNoNotes
	}
	groups := e.groups(notes)
	zw := zip.NewWriter(w)

	for _, g := range groups {
		used := map[string]bool{}
		for _, n := range g.notes {
			name := uniqueName(used, e.FileName(n))
			if err := writeEntry(zw, g.name+"/"+name, e.ToMarkdown(n)); err != nil {
				return Result{}, err
			}
		}
	}
	if err := writeEntry(zw, "README.md", e.Summary(len(notes), groups)); err != nil {
		return Result{}, err
	}
	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("finish zip: %w", err)
	}
	return Result{Notes: len(notes), Folders: len(groups)}, nil
}

func uniqueName(used map[string]bool, name string) string {
	base := strings.TrimSuffix(name, ".md")
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = base + "-" + strconv.Itoa(i) + ".md"
	}
	used[candidate] = true
	return candidate
}

func writeEntry(zw *zip.Writer, name, body string) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.WriteString(f, body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
