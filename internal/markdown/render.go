package markdown

import "strings"

// RenderV2 converts the light markdown produced by LLMs (ATX headings and
// **bold** runs) into Telegram MarkdownV2. Everything else is escaped and
// shown literally.
func RenderV2(input string) string {
	lines := strings.Split(input, "\n")
	for i, line := range lines {
		lines[i] = renderLine(line)
	}

	return strings.Join(lines, "\n")
}

func renderLine(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if heading, ok := strings.CutPrefix(trimmed, "#"); ok {
		heading = strings.TrimLeft(heading, "#")
		if strings.HasPrefix(heading, " ") {
			heading = strings.TrimSpace(strings.ReplaceAll(heading, "**", ""))
			if heading == "" {
				return ""
			}
			return Bold(heading)
		}
	}

	parts := strings.Split(line, "**")
	if len(parts)%2 == 0 {
		// Unbalanced markers stay literal.
		return EscapeV2(line)
	}

	var b strings.Builder
	for i, part := range parts {
		switch {
		case i%2 == 0:
			b.WriteString(EscapeV2(part))
		case part == "":
			b.WriteString(EscapeV2("****"))
		default:
			b.WriteString(Bold(part))
		}
	}

	return b.String()
}
