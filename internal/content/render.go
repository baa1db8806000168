package content

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("src").Matching(regexp.MustCompile(`^https://www\.youtube\.com/embed/[^"&?/\s]{11}$`)).OnElements("iframe")
	p.AllowAttrs("allow").Matching(regexp.MustCompile(`^(([\p{L}\p{N}_-]+)(; )?)+$`)).OnElements("iframe")
	p.AllowAttrs("allowfullscreen").OnElements("iframe")
	p.AllowAttrs("controls", "preload").OnElements("video")
	p.AllowAttrs("src").OnElements("source")
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderHTML turns segments into sanitized HTML. Mentions are labelled with
// names from the resolver, falling back to a generated name.
func RenderHTML(segments []Segment, names NameResolver) string {
	var b strings.Builder
	for _, s := range segments {
		text := html.EscapeString(s.Text)
		href := html.EscapeString(s.Href)
		switch s.Kind {
		case KindImage:
			b.WriteString(`<img src="` + href + `" alt="Embedded image">`)
		case KindVideo:
			b.WriteString(`<video controls preload="metadata"><source src="` + href + `"><a href="` + href + `">` + text + `</a></video>`)
		case KindYouTube:
			b.WriteString(`<iframe src="` + href + `" title="YouTube video" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen></iframe>`)
		case KindNoteLink:
			b.WriteString(`<a href="` + href + `">📝 ` + text + `</a>`)
		case KindNoteRef:
			b.WriteString(`<a href="` + href + `" title="` + html.EscapeString(s.NostrID) + `">📝 ` + text + `</a>`)
		case KindMention:
			b.WriteString(`<a href="` + href + `">@` + html.EscapeString(DisplayName(names, s.PubKey)) + `</a>`)
		case KindLink, KindNostrLink, KindHashtag:
			b.WriteString(`<a href="` + href + `">` + text + `</a>`)
		default:
			b.WriteString(text)
		}
	}
	return policy.Sanitize(b.String())
}

// Render parses text and renders it in one step.
func Render(text string, names NameResolver) string {
	return RenderHTML(Parse(text), names)
}
