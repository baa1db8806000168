package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/harrylevesque/revisitor/internal/api"
	"github.com/harrylevesque/revisitor/internal/feedback"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/review"
)

// Default server base URL; override with REVISITOR_SERVER or --server.
const defaultServer = "http://localhost:8080"

type options struct {
	server string
	rng    string
	relay  string
	plain  bool
}

func (o *options) client() *apiClient {
	return newAPIClient(o.server)
}

func (o *options) scope() url.Values {
	q := url.Values{}
	if o.rng != "" {
		q.Set("range", o.rng)
	}
	if o.relay != "" {
		q.Set("relay", o.relay)
	}
	return q
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := &options{server: defaultServer}
	if env := os.Getenv("REVISITOR_SERVER"); env != "" {
		o.server = env
	}

	root := &cobra.Command{
		Use:           "revisitor",
		Short:         "Revisit your Nostr notes with spaced repetition",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&o.server, "server", o.server, "server base URL")
	root.PersistentFlags().StringVar(&o.rng, "range", "", "time range: month or all-time")
	root.PersistentFlags().StringVar(&o.relay, "relay", "", "read notes from this relay instead of the selected one")
	root.PersistentFlags().BoolVar(&o.plain, "plain", false, "print note text without markdown rendering")

	root.AddCommand(
		notesCmd(o),
		queueCmd(o),
		reviewCmd(o),
		resetCmd(o),
		statsCmd(o),
		exportCmd(o),
		boostCmd(o),
		quoteCmd(o),
		neventCmd(o),
		relaysCmd(o),
		feedbackCmd(o),
	)
	return root
}

func (o *options) render(text string) string {
	if o.plain {
		return text
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

// shortID abbreviates an event id for listings.
func shortID(id string) string {
	return id[:min(12, len(id))]
}

func printNote(w io.Writer, o *options, v api.NoteView) {
	p := v.Progress
	fmt.Fprintf(w, "%s  %s  level %d/%d", shortID(v.Note.ID), v.TimeAgo, p.Level, p.MaxLevel)
	switch {
	case p.IsMastered:
		fmt.Fprint(w, "  mastered")
	case p.IsDue:
		fmt.Fprint(w, "  due")
	case p.NextReview != nil:
		fmt.Fprintf(w, "  next %s", p.NextReview.Format("2006-01-02"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, o.render(v.Note.Content))
}

func notesCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "notes",
		Short: "List your notes with their review progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.NotesResponse
			if err := o.client().call(cmd.Context(), http.MethodGet, "/api/notes", o.scope(), nil, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(resp.Notes) == 0 {
				fmt.Fprintln(out, resp.EmptyMessage)
				return nil
			}
			for _, v := range resp.Notes {
				printNote(out, o, v)
			}
			fmt.Fprintf(out, "%d notes on %s\n", len(resp.Notes), resp.Relay)
			return nil
		},
	}
}

func queueCmd(o *options) *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show the notes due for revisiting",
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.QueueResponse
			if err := o.client().call(cmd.Context(), http.MethodGet, "/api/review/queue", o.scope(), nil, &resp); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if resp.Total == 0 {
				fmt.Fprintln(out, "All caught up!")
				fmt.Fprintln(out, resp.Message)
				return nil
			}
			if interactive {
				return runQueue(cmd.Context(), o, resp.Notes, cmd.InOrStdin(), out)
			}
			for _, v := range resp.Notes {
				printNote(out, o, v)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "step through the queue")
	return cmd
}

// runQueue walks the due notes, recording reviews as the user confirms them.
func runQueue(ctx context.Context, o *options, views []api.NoteView, in io.Reader, out io.Writer) error {
	byID := make(map[string]api.NoteView, len(views))
	due := make([]*nostr.Event, 0, len(views))
	for _, v := range views {
		byID[v.Note.ID] = v
		due = append(due, v.Note)
	}
	q := review.NewQueue(due)
	sc := bufio.NewScanner(in)

	for {
		cur, ok := q.Current()
		if !ok {
			fmt.Fprintln(out, "All caught up!")
			return nil
		}
		v := byID[cur.ID]
		fmt.Fprintf(out, "\n%s (%.0f%%)\n", q.Position(), q.Percent())
		printNote(out, o, v)
		fmt.Fprintf(out, "Next review after this one: %s\n", review.DescribeNextInterval(v.Progress.Level))
		fmt.Fprint(out, "[r]eviewed  [s]kip  [n]ext  [p]rev  [q]uit > ")
		if !sc.Scan() {
			return sc.Err()
		}
		switch strings.TrimSpace(strings.ToLower(sc.Text())) {
		case "r":
			var p models.ReviewProgress
			if err := o.client().call(ctx, http.MethodPost, "/api/review/"+cur.ID, o.scope(), nil, &p); err != nil {
				return err
			}
			fmt.Fprintf(out, "Marked as revisited. Level %d/%d\n", p.Level, p.MaxLevel)
			q.Remove(cur.ID)
		case "s":
			if q.CanSkip() {
				q.Skip()
			}
		case "n":
			q.Next()
		case "p":
			q.Prev()
		case "q":
			return nil
		}
	}
}

func reviewCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "review <note-id>",
		Short: "Mark a note as revisited",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.ReviewProgress
			if err := o.client().call(cmd.Context(), http.MethodPost, "/api/review/"+args[0], o.scope(), nil, &p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Level %d/%d, %d reviews\n", p.Level, p.MaxLevel, p.ReviewCount)
			return nil
		},
	}
}

func resetCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <note-id>",
		Short: "Forget a note's review progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.client().call(cmd.Context(), http.MethodDelete, "/api/review/"+args[0], o.scope(), nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Progress reset.")
			return nil
		},
	}
}

func statsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize review progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			var s models.ReviewStats
			if err := o.client().call(cmd.Context(), http.MethodGet, "/api/review/stats", o.scope(), nil, &s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nDue: %d\nMastered: %d\nLearning: %d\n",
				s.Total, s.DueForReview, s.Mastered, s.Learning)
			return nil
		},
	}
}

func exportCmd(o *options) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download your notes as a zip of markdown files",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := o.client().request(cmd.Context(), http.MethodGet, "/api/export", o.scope(), nil)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			name := "nostr-notes-export.zip"
			if _, params, ok := strings.Cut(resp.Header.Get("Content-Disposition"), "filename="); ok {
				name = strings.Trim(params, `"`)
			}
			path := filepath.Join(dir, filepath.Base(name))
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, resp.Body); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nSaved %s\n", resp.Header.Get("X-Export-Summary"), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory to write the archive to")
	return cmd
}

func printToast(w io.Writer, t models.Toast) {
	fmt.Fprintf(w, "%s %s\n", t.Title, t.Description)
}

func boostCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "boost <note-id>",
		Short: "Repost a note to your followers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp api.PublishResponse
			if err := o.client().call(cmd.Context(), http.MethodPost, "/api/notes/"+args[0]+"/boost", o.scope(), nil, &resp); err != nil {
				return err
			}
			printToast(cmd.OutOrStdout(), resp.Toast)
			return nil
		},
	}
}

func quoteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <note-id> <comment>",
		Short: "Publish a quoted boost of a note",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"comment": strings.Join(args[1:], " ")}
			var resp api.PublishResponse
			if err := o.client().call(cmd.Context(), http.MethodPost, "/api/notes/"+args[0]+"/quote", o.scope(), body, &resp); err != nil {
				return err
			}
			printToast(cmd.OutOrStdout(), resp.Toast)
			return nil
		},
	}
}

func neventCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "nevent <note-id>",
		Short: "Print the nevent reference for a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp struct {
				Nevent string `json:"nevent"`
			}
			if err := o.client().call(cmd.Context(), http.MethodGet, "/api/notes/"+args[0]+"/nevent", o.scope(), nil, &resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "nostr:"+resp.Nevent)
			return nil
		},
	}
}

func relaysCmd(o *options) *cobra.Command {
	var use string
	var reset bool
	cmd := &cobra.Command{
		Use:   "relays [query]",
		Short: "Search relays, or pick the one notes are read from",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			var resp api.RelaysResponse
			var err error
			switch {
			case reset:
				err = c.call(cmd.Context(), http.MethodDelete, "/api/relays", nil, nil, &resp)
			case use != "":
				err = c.call(cmd.Context(), http.MethodPost, "/api/relays", nil, map[string]string{"url": use}, &resp)
			default:
				q := url.Values{}
				if len(args) == 1 {
					q.Set("q", args[0])
				}
				err = c.call(cmd.Context(), http.MethodGet, "/api/relays", q, nil, &resp)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reading from %s (%s)\n", resp.DisplayName, resp.Effective)
			for _, c := range resp.Candidates {
				mark := " "
				if c.Selected {
					mark = "*"
				}
				label := c.Name
				if c.IsDefault {
					label += " (default)"
				}
				fmt.Fprintf(out, "%s %-24s %s\n", mark, label, c.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&use, "use", "", "select this relay")
	cmd.Flags().BoolVar(&reset, "reset", false, "go back to the default relay")
	return cmd
}

func feedbackCmd(o *options) *cobra.Command {
	var req feedback.Request
	var dismiss bool
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send an encrypted rating to the developers",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			out := cmd.OutOrStdout()
			if dismiss {
				return c.call(cmd.Context(), http.MethodPost, "/api/feedback/dismiss", nil, nil, nil)
			}
			var resp api.PublishResponse
			err := c.call(cmd.Context(), http.MethodPost, "/api/feedback", nil, req, &resp)
			if isStatus(err, http.StatusConflict) {
				fmt.Fprintln(out, "Feedback was already sent this session.")
				return nil
			}
			if err != nil {
				return err
			}
			printToast(out, resp.Toast)
			return nil
		},
	}
	cmd.Flags().IntVarP(&req.Rating, "rating", "r", 0, "star rating from 1 to 5")
	cmd.Flags().StringVarP(&req.Improvements, "improve", "m", "", "what could be improved")
	cmd.Flags().StringVar(&req.Recipient, "to", "", "recipient npub")
	cmd.Flags().BoolVar(&dismiss, "dismiss", false, "do not ask again this session")
	return cmd
}
