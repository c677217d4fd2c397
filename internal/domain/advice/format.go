package advice

import (
	"regexp"
	"strconv"
	"strings"
)

// NoAdviceText is rendered when the advice string is empty.
const NoAdviceText = "No advice available"

// BlockKind identifies how a block should be displayed.
type BlockKind string

const (
	BlockParagraph BlockKind = "paragraph"
	BlockList      BlockKind = "list"
	BlockNotice    BlockKind = "notice"
)

// Block is a paragraph, a bullet list or a notice.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text,omitempty"`
	Items []string  `json:"items,omitempty"`
}

// Section groups blocks under an optional title. Number is 0 for sections
// that came from unnumbered paragraphs.
type Section struct {
	Number int     `json:"number,omitempty"`
	Title  string  `json:"title,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Document is the structured form of an advice string.
type Document struct {
	Numbered bool      `json:"numbered"`
	Sections []Section `json:"sections"`
}

var (
	numberedHeader = regexp.MustCompile(`(\d+)\.\s*\*\*([^*]+)\*\*`)
	boldHeader     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	markBullet     = regexp.MustCompile(`^[•\-*]\s+`)
	numberBullet   = regexp.MustCompile(`^\d+\.\s+`)
)

// FormatAdvice parses loosely structured advice text. Text made of
// "N. **Title** body" sections is split on those markers; anything else is
// treated as blank-line separated paragraphs.
func FormatAdvice(raw string) Document {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return Document{Sections: []Section{{Blocks: []Block{{Kind: BlockNotice, Text: NoAdviceText}}}}}
	}
	if sections := numberedSections(text); len(sections) > 0 {
		return Document{Numbered: true, Sections: sections}
	}
	return Document{Sections: paragraphSections(text)}
}

func numberedSections(text string) []Section {
	matches := numberedHeader.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	sections := make([]Section, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		number, _ := strconv.Atoi(text[m[2]:m[3]])
		sections = append(sections, Section{
			Number: number,
			Title:  strings.TrimSpace(text[m[4]:m[5]]),
			Blocks: lineBlocks(text[m[1]:end], true),
		})
	}
	return sections
}

func paragraphSections(text string) []Section {
	var sections []Section
	for _, para := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			continue
		}
		section := Section{}
		body := trimmed
		if loc := boldHeader.FindStringSubmatchIndex(trimmed); loc != nil {
			section.Title = strings.TrimSpace(trimmed[loc[2]:loc[3]])
			body = strings.TrimSpace(trimmed[:loc[0]] + trimmed[loc[1]:])
		}
		if body != "" {
			if hasMarkBullets(body) {
				section.Blocks = lineBlocks(body, false)
			} else {
				section.Blocks = []Block{{Kind: BlockParagraph, Text: body}}
			}
		}
		sections = append(sections, section)
	}
	return sections
}

func hasMarkBullets(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if markBullet.MatchString(strings.TrimSpace(line)) {
			return true
		}
	}
	return false
}

// lineBlocks groups contiguous bullet lines into one list and turns every
// other non-empty line into a paragraph.
func lineBlocks(body string, numberedItems bool) []Block {
	var (
		blocks []Block
		list   []string
	)
	flush := func() {
		if len(list) > 0 {
			blocks = append(blocks, Block{Kind: BlockList, Items: list})
			list = nil
		}
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if item, ok := bulletItem(trimmed, numberedItems); ok {
			list = append(list, item)
			continue
		}
		flush()
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: trimmed})
	}
	flush()
	return blocks
}

func bulletItem(line string, numberedItems bool) (string, bool) {
	if loc := markBullet.FindStringIndex(line); loc != nil {
		return line[loc[1]:], true
	}
	if numberedItems {
		if loc := numberBullet.FindStringIndex(line); loc != nil {
			return line[loc[1]:], true
		}
	}
	return "", false
}

// PlainText flattens a document for terminals and emails.
func (d Document) PlainText() string {
	var b strings.Builder
	for i, s := range d.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case s.Number > 0 && s.Title != "":
			b.WriteString(strconv.Itoa(s.Number) + ". " + s.Title + "\n")
		case s.Title != "":
			b.WriteString(s.Title + "\n")
		}
		for _, block := range s.Blocks {
			if block.Kind == BlockList {
				for _, item := range block.Items {
					b.WriteString("  • " + item + "\n")
				}
				continue
			}
			b.WriteString(block.Text + "\n")
		}
	}
	return b.String()
}
