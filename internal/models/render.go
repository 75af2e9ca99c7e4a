package models

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const timeLayout = "2006-01-02 15:04:05"

var textPolicy = bluemonday.StrictPolicy()

// plainText drops any markup the service left in user content
func plainText(s string) string {
	return html.UnescapeString(textPolicy.Sanitize(s))
}

// String renders the comment and its replies, one per line
func (c Comment) String() string {
	var b strings.Builder
	b.WriteString(c.AuthorName)
	b.WriteString(": ")
	for _, m := range c.Media {
		b.WriteString(m.String())
	}
	b.WriteString(plainText(c.Content))
	for _, r := range c.Replies {
		b.WriteString("\n| ")
		b.WriteString(strings.ReplaceAll(r.String(), "\n", "\n| "))
	}
	return b.String()
}

// String renders the post for a terminal. Unloaded content falls back to
// the short form followed by an ellipsis.
func (p *Post) String() string {
	var b strings.Builder
	b.WriteString(p.AuthorName)
	if ts, ok := p.CreatedAt.Get(); ok {
		b.WriteString(" " + ts.UTC().Format(timeLayout))
	}
	if loc, ok := p.Location.Get(); ok && loc.Name != "" {
		b.WriteString(" from " + loc.Name)
	}
	if p.Source != "" {
		b.WriteString(" via " + p.Source)
	}
	b.WriteString("\n")

	for _, m := range p.KnownMedia() {
		b.WriteString(m.String())
	}
	if content, ok := p.Content.Get(); ok {
		b.WriteString(plainText(content))
	} else {
		b.WriteString(plainText(p.ShortContent) + " ...")
	}
	b.WriteString("\n")

	if p.QuotedPost != nil {
		lines := strings.Split(strings.TrimRight(p.QuotedPost.String(), "\n"), "\n")
		b.WriteString("| " + strings.Join(lines, "\n| ") + "\n")
	}

	if reactions, ok := p.Reactions.Get(); ok {
		fmt.Fprintf(&b, "%d likes   ", len(reactions))
	}
	forwards := "?"
	if n, ok := p.ForwardCount.Get(); ok {
		forwards = strconv.Itoa(n)
	}
	fmt.Fprintf(&b, "%s forwards   %d comments\n", forwards, len(p.Comments))

	comments := make([]string, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, c.String())
	}
	b.WriteString(strings.Join(comments, "\n"))
	return b.String()
}
