// Package extract pulls mod identifiers and item metadata out of raw text.
// Nothing here touches the network or the filesystem.
package extract

import (
	urlpkg "net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	pageModIDRE = regexp.MustCompile(`Mod ID:\s*([\w-]+)`)
	infoModIDRE = regexp.MustCompile(`id=([\w_]+)`)
)

// PageModID returns the first "Mod ID: <token>" occurrence in a Workshop
// detail page.
func PageModID(text string) (string, bool) {
	m := pageModIDRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// InfoModID returns the first "id=<token>" occurrence in a mod.info file.
func InfoModID(text string) (string, bool) {
	m := infoModIDRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ItemTitle returns the text of the workshopItemTitle element of a detail
// page, or "" when the page has none.
func ItemTitle(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}
	n := findByClass(doc, "workshopItemTitle")
	if n == nil {
		return ""
	}
	var sb strings.Builder
	collectText(n, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// CollectionItemIDs returns the item IDs linked from the collectionItem
// entries of a Workshop collection page, in page order and without
// duplicates. Each entry contributes the id query parameter of its first
// link.
func CollectionItemIDs(page string) []string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil
	}
	ids := []string{}
	seen := map[string]bool{}
	for _, item := range findAllByClass(doc, "collectionItem", nil) {
		link := firstLink(item)
		if link == "" {
			continue
		}
		u, err := urlpkg.Parse(link)
		if err != nil {
			continue
		}
		id := u.Query().Get("id")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func findByClass(n *html.Node, class string) *html.Node {
	if hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

// findAllByClass does not descend into matched nodes.
func findAllByClass(n *html.Node, class string, acc []*html.Node) []*html.Node {
	if hasClass(n, class) {
		return append(acc, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		acc = findAllByClass(c, class, acc)
	}
	return acc
}

func firstLink(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "a" {
		for _, a := range n.Attr {
			if a.Key == "href" && a.Val != "" {
				return a.Val
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := firstLink(c); href != "" {
			return href
		}
	}
	return ""
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
