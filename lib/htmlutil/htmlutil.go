package htmlutil

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// DirectText returns only the text nodes that are immediate children of
// the given node, trimmed and joined with single spaces. Text inside
// descendant elements is ignored, which matters for markup like
// <td>10<span>unit</span></td> where the nested annotation must not be
// counted as part of the value.
func DirectText(node *html.Node) string {
	if node == nil {
		return ""
	}
	var parts []string
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.TextNode {
			continue
		}
		text := strings.TrimSpace(child.Data)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
