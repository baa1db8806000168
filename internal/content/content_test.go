package content

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/revisitor/internal/nostr"
)

const (
	fiatjafHex  = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	fiatjafNpub = "npub180cvv07tjdrrgpa0j7j7tmnyl2yr6yr7l8j4s3evf6u64th6gkwsyjh6w6"
)

func TestParsePlainText(t *testing.T) {
	want := []Segment{{Kind: KindText, Text: "just words"}}
	if diff := cmp.Diff(want, Parse("just words")); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Segment{{Kind: KindText, Text: ""}}, Parse("")); diff != "" {
		t.Errorf("Parse(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestParseMixed(t *testing.T) {
	text := "gm #nostr see https://example.com/a and hi nostr:" + fiatjafNpub + "!"
	want := []Segment{
		{Kind: KindText, Text: "gm "},
		{Kind: KindHashtag, Text: "#nostr", Tag: "nostr", Href: "/t/nostr"},
		{Kind: KindText, Text: " see "},
		{Kind: KindLink, Text: "https://example.com/a", Href: "https://example.com/a"},
		{Kind: KindText, Text: " and hi "},
		{Kind: KindMention, Text: "nostr:" + fiatjafNpub, PubKey: fiatjafHex, NostrID: fiatjafNpub, Href: "/" + fiatjafNpub},
		{Kind: KindText, Text: "!"},
	}
	if diff := cmp.Diff(want, Parse(text)); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseURLStopsAtUnicodeSpace(t *testing.T) {
	want := []Segment{
		{Kind: KindText, Text: "see "},
		{Kind: KindLink, Text: "https://example.com", Href: "https://example.com"},
		{Kind: KindText, Text: "\u00a0and\u2003more"},
	}
	if diff := cmp.Diff(want, Parse("see https://example.com\u00a0and\u2003more")); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		kind Kind
		href string
	}{
		{"https://cdn.example.com/cat.PNG", KindImage, "https://cdn.example.com/cat.PNG"},
		{"https://cdn.example.com/cat.jpg?w=200", KindImage, "https://cdn.example.com/cat.jpg?w=200"},
		{"https://cdn.example.com/clip.mp4", KindVideo, "https://cdn.example.com/clip.mp4"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", KindYouTube, "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", KindYouTube, "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{"https://njump.me/note1abc", KindNoteLink, "https://njump.me/note1abc"},
		{"https://primal.net/e/note1qqqq", KindNoteLink, "https://njump.me/note1qqqq"},
		{"https://iris.to/some/post", KindNoteLink, "https://iris.to/some/post"},
		{"https://golang.org/doc", KindLink, "https://golang.org/doc"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			seg := classifyURL(tt.url)
			assert.Equal(t, tt.kind, seg.Kind)
			assert.Equal(t, tt.href, seg.Href)
		})
	}
}

func TestParseNostrReferences(t *testing.T) {
	id := strings.Repeat("ab", 32)
	note, err := nostr.EncodeNote(id)
	require.NoError(t, err)
	nevent, err := nostr.EncodeEvent(id, nil, fiatjafHex)
	require.NoError(t, err)
	nprofile, err := nostr.EncodeProfile(fiatjafHex, nil)
	require.NoError(t, err)

	segs := Parse("nostr:" + note + " nostr:" + nevent + " nostr:" + nprofile + " nostr:note1qqqq")
	require.Len(t, segs, 7)

	assert.Equal(t, KindNoteRef, segs[0].Kind)
	assert.Equal(t, "https://njump.me/"+note, segs[0].Href)
	assert.Equal(t, KindNoteRef, segs[2].Kind)
	assert.Equal(t, nevent, segs[2].NostrID)
	assert.Equal(t, KindNostrLink, segs[4].Kind)
	assert.Equal(t, "/"+nprofile, segs[4].Href)
	assert.Equal(t, Segment{Kind: KindText, Text: "nostr:note1qqqq"}, segs[6], "undecodable reference stays text")
}

func TestHashtags(t *testing.T) {
	assert.Equal(t, []string{"#go", "#nostr_dev"}, Hashtags("learning #go on #nostr_dev today"))
	assert.Empty(t, Hashtags("nothing here"))
}

func TestGenUserName(t *testing.T) {
	assert.Equal(t, "Grand Bear", GenUserName(fiatjafHex))
	assert.Equal(t, "Swift Fox", GenUserName(""))
	assert.Equal(t, GenUserName("x"), GenUserName("x"))
}

func TestRenderHTML(t *testing.T) {
	names := MapNames{fiatjafHex: "fiatjaf"}
	out := Render("<script>alert(1)</script> #nostr https://x.com/a.png https://youtu.be/dQw4w9WgXcQ nostr:"+fiatjafNpub, names)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, `href="/t/nostr"`)
	assert.Contains(t, out, `src="https://x.com/a.png"`)
	assert.Contains(t, out, `src="https://www.youtube.com/embed/dQw4w9WgXcQ"`)
	assert.Contains(t, out, "@fiatjaf")
}

func TestRenderMentionFallsBackToGeneratedName(t *testing.T) {
	out := RenderHTML(Parse("nostr:"+fiatjafNpub), nil)
	assert.Contains(t, out, "@Grand Bear")
}
