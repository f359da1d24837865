package graphics

import "strings"

// Ellipsis marks a name truncated to the line limit.
const Ellipsis = "..."

// WrapText greedily packs words into lines no wider than maxWidth, as
// measured by measure. A word wider than maxWidth gets a line of its own.
// When more than maxLines lines would be needed, the result is cut to
// maxLines and the last line ends with an ellipsis, dropping trailing words
// until it fits.
func WrapText(text string, maxWidth float64, maxLines int, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 || maxLines < 1 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = word
			continue
		}
		line = candidate
	}
	lines = append(lines, line)

	if len(lines) <= maxLines {
		return lines
	}

	lines = lines[:maxLines]
	last := strings.Fields(lines[maxLines-1])
	for len(last) > 1 && measure(strings.Join(last, " ")+Ellipsis) > maxWidth {
		last = last[:len(last)-1]
	}
	lines[maxLines-1] = strings.Join(last, " ") + Ellipsis
	return lines
}
