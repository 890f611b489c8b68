package markdown

import "strings"

// Block is a generated region delimited by HTML comments so hand-written
// text around it is preserved across rewrites.
type Block struct {
	Name string
}

func (b Block) start() string { return "<!-- studyhub:" + b.Name + ":start -->" }
func (b Block) end() string   { return "<!-- studyhub:" + b.Name + ":end -->" }

// Replace swaps the block's contents, appending the block when absent.
func (b Block) Replace(body, generated string) string {
	block := b.start() + "\n" + strings.TrimRight(generated, "\n") + "\n" + b.end()

	start := strings.Index(body, b.start())
	if start >= 0 {
		if end := strings.Index(body[start:], b.end()); end >= 0 {
			end += start + len(b.end())
			return body[:start] + block + body[end:]
		}
	}

	switch {
	case strings.TrimSpace(body) == "":
		return block + "\n"
	case strings.HasSuffix(body, "\n"):
		return body + "\n" + block + "\n"
	default:
		return body + "\n\n" + block + "\n"
	}
}

// Contents returns the text inside the block, or false if it is missing.
func (b Block) Contents(body string) (string, bool) {
	start := strings.Index(body, b.start())
	if start < 0 {
		return "", false
	}
	from := start + len(b.start())
	end := strings.Index(body[from:], b.end())
	if end < 0 {
		return "", false
	}
	return strings.Trim(body[from:from+end], "\n"), true
}
