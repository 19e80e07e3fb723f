package websearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// maxListItems caps how many list entries are rendered.
const maxListItems = 5

// FormatResults renders an outcome as text for a prompt. It never fails.
func FormatResults(o Outcome) string {
	switch v := o.(type) {
	case Failure:
		return "Web search failed: " + v.Reason
	case Success:
		return formatPayload(v.Query, v.Result)
	default:
		return "Web search failed: unknown outcome"
	}
}

func formatPayload(query string, p Payload) string {
	if p.Kind == PayloadText {
		return p.Text
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %s\n\nSearch results:\n", query)

	switch p.Kind {
	case PayloadObject:
		b.WriteString(objectText(p.Object))
		b.WriteString("\n")
	case PayloadList:
		for i, item := range p.List {
			if i >= maxListItems {
				break
			}
			n := i + 1
			if obj, ok := item.(map[string]any); ok {
				title := fmt.Sprintf("Result %d", n)
				if t, ok := obj["title"]; ok {
					title = stringify(t)
				}
				fmt.Fprintf(&b, "%d. %s\n%s\n\n", n, title, itemContent(obj))
			} else {
				fmt.Fprintf(&b, "%d. %s\n\n", n, stringify(item))
			}
		}
	default:
		b.WriteString(stringify(p.Other))
	}
	return b.String()
}

// objectText picks the first of content, answer or text; otherwise the whole
// object as indented JSON.
func objectText(obj map[string]any) string {
	for _, key := range []string{"content", "answer", "text"} {
		if v, ok := obj[key]; ok {
			return stringify(v)
		}
	}
	return indentJSON(obj)
}

// itemContent picks content, then snippet, else the whole item.
func itemContent(obj map[string]any) string {
	if v, ok := obj["content"]; ok {
		return stringify(v)
	}
	if v, ok := obj["snippet"]; ok {
		return stringify(v)
	}
	return stringify(obj)
}

func stringify(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case json.Number:
		return tv.String()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(tv); err != nil {
			return fmt.Sprint(tv)
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}

func indentJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
