// Package content splits note text into typed segments and renders them.
package content

import (
	"regexp"
	"strings"

	"github.com/harrylevesque/revisitor/internal/nostr"
)

// Kind identifies what a Segment holds.
type Kind string

const (
	KindText      Kind = "text"
	KindLink      Kind = "link"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindYouTube   Kind = "youtube"
	KindNoteLink  Kind = "note_link"
	KindMention   Kind = "mention"
	KindNoteRef   Kind = "note_ref"
	KindNostrLink Kind = "nostr_link"
	KindHashtag   Kind = "hashtag"
)

// Segment is one run of parsed note content. Text is always the matched
// source text; the other fields depend on Kind.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Text    string `json:"text"`
	Href    string `json:"href,omitempty"`
	VideoID string `json:"video_id,omitempty"`
	PubKey  string `json:"pubkey,omitempty"`
	NostrID string `json:"nostr_id,omitempty"`
	Tag     string `json:"tag,omitempty"`
}

const bech32Chars = "023456789acdefghjklmnpqrstuvwxyz"

var (
	tokenRE    = regexp.MustCompile(`(https?://[^\s\p{Z}]+)|nostr:(npub1|note1|nprofile1|nevent1)([` + bech32Chars + `]+)|(#\w+)`)
	imageRE    = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp|svg)(\?.*)?$`)
	videoRE    = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov)(\?.*)?$`)
	youtubeRE  = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	notePathRE = regexp.MustCompile(`/((?:note1|nevent1)[` + bech32Chars + `]+)`)
	hashtagRE  = regexp.MustCompile(`#\w+`)
)

var noteHosts = []string{"njump.me", "nostr.com", "iris.to", "snort.social", "nostrgram.co"}

// Parse splits text into segments in source order. Text without any link,
// nostr reference or hashtag yields a single text segment.
func Parse(text string) []Segment {
	var (
		out  []Segment
		last int
	)
	for _, m := range tokenRE.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > last {
			out = append(out, Segment{Kind: KindText, Text: text[last:start]})
		}
		full := text[start:end]
		switch {
		case m[2] >= 0:
			out = append(out, classifyURL(full))
		case m[4] >= 0:
			out = append(out, nostrSegment(full, text[m[4]:m[5]]+text[m[6]:m[7]]))
		case m[8] >= 0:
			out = append(out, Segment{Kind: KindHashtag, Text: full, Tag: full[1:], Href: "/t/" + full[1:]})
		}
		last = end
	}
	if last < len(text) {
		out = append(out, Segment{Kind: KindText, Text: text[last:]})
	}
	if len(out) == 0 {
		out = append(out, Segment{Kind: KindText, Text: text})
	}
	return out
}

func classifyURL(u string) Segment {
	switch {
	case imageRE.MatchString(u):
		return Segment{Kind: KindImage, Text: u, Href: u}
	case videoRE.MatchString(u):
		return Segment{Kind: KindVideo, Text: u, Href: u}
	}
	if m := youtubeRE.FindStringSubmatch(u); m != nil {
		return Segment{Kind: KindYouTube, Text: u, VideoID: m[1], Href: "https://www.youtube.com/embed/" + m[1]}
	}
	if isNoteURL(u) {
		return Segment{Kind: KindNoteLink, Text: u, Href: njumpHref(u)}
	}
	return Segment{Kind: KindLink, Text: u, Href: u}
}

func isNoteURL(u string) bool {
	for _, h := range noteHosts {
		if strings.Contains(u, h) {
			return true
		}
	}
	return notePathRE.MatchString(u)
}

// njumpHref points a note URL at njump.me, keeping njump links as they are.
func njumpHref(u string) string {
	if strings.Contains(u, "njump.me") {
		return u
	}
	if m := notePathRE.FindStringSubmatch(u); m != nil {
		return "https://njump.me/" + m[1]
	}
	return u
}

func nostrSegment(full, id string) Segment {
	p, err := nostr.Decode(id)
	if err != nil {
		return Segment{Kind: KindText, Text: full}
	}
	switch p.Type {
	case nostr.PrefixNpub:
		return Segment{Kind: KindMention, Text: full, PubKey: p.Hex, NostrID: id, Href: "/" + id}
	case nostr.PrefixNote, nostr.PrefixNevent:
		return Segment{Kind: KindNoteRef, Text: full, NostrID: id, Href: "https://njump.me/" + id}
	default:
		return Segment{Kind: KindNostrLink, Text: full, NostrID: id, Href: "/" + id}
	}
}

// Hashtags returns the #tags in text in order of appearance.
func Hashtags(text string) []string {
	return hashtagRE.FindAllString(text, -1)
}
