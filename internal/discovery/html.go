package discovery

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

func searchAll(node *html.Node, pred func(*html.Node) bool) (results []*html.Node) {
	if pred(node) {
		results = append(results, node)
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		result := searchAll(child, pred)
		if len(result) > 0 {
			results = append(results, result...)
		}
	}

	return
}

func getAttr(node *html.Node, attrName string) string {
	for _, attr := range node.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}

func hasClass(node *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(node, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent flattens the text nodes under node, which also strips any
// markup from extracted names.
func textContent(node *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return strings.TrimSpace(sb.String())
}

// findHApp extracts the name and logo of the first h-app micro-entity.
func findHApp(root *html.Node) (name, logo string) {
	apps := searchAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, "h-app")
	})
	if len(apps) == 0 {
		return "", ""
	}
	app := apps[0]

	if names := searchAll(app, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, "p-name")
	}); len(names) > 0 {
		name = textContent(names[0])
	}

	if logos := searchAll(app, func(n *html.Node) bool {
		return n.Type == html.ElementNode && hasClass(n, "u-logo")
	}); len(logos) > 0 {
		n := logos[0]
		if n.Data == "img" {
			logo = getAttr(n, "src")
		} else {
			logo = getAttr(n, "href")
		}
	}

	return name, logo
}

func findTitle(root *html.Node) string {
	titles := searchAll(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "title"
	})
	if len(titles) == 0 {
		return ""
	}
	return textContent(titles[0])
}

// findIconLink returns the href of the first rel="icon" or
// rel="shortcut icon" link element.
func findIconLink(root *html.Node) string {
	links := searchAll(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "link" {
			return false
		}
		// Matches both rel="icon" and rel="shortcut icon".
		for _, rel := range strings.Fields(getAttr(n, "rel")) {
			if strings.EqualFold(rel, "icon") {
				return true
			}
		}
		return false
	})
	if len(links) == 0 {
		return ""
	}
	return getAttr(links[0], "href")
}

// findRedirectURIs collects link rel="redirect_uri" hrefs.
func findRedirectURIs(root *html.Node) []string {
	var out []string
	links := searchAll(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "link" {
			return false
		}
		for _, rel := range strings.Fields(getAttr(n, "rel")) {
			if rel == "redirect_uri" {
				return true
			}
		}
		return false
	})
	for _, n := range links {
		if href := getAttr(n, "href"); href != "" {
			out = append(out, href)
		}
	}
	return out
}

// resolveURL resolves ref against base and re-validates the result as an
// absolute http(s) URL. Returns "" when it is not.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(u)
	if !validAbsoluteURL(abs.String()) {
		return ""
	}
	return abs.String()
}

// validAbsoluteURL reports whether s parses as an absolute http(s) URL
// with a host.
func validAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
