package content

// Paragraph styles understood by the document service.
const (
	StyleTitle    = "TITLE"
	StyleHeading2 = "HEADING_2"
)

// Line is one rendered paragraph with optional named style and bullet flag.
type Line struct {
	Text   string
	Style  string
	Bullet bool
}

// Range is a half-open [Start, End) index range into the rendered text,
// using the document service's 1-based body indexing.
type Range struct {
	Start int
	End   int
	Style string
}

// Rendered is document content flattened into a single insert plus the
// style and bullet ranges to apply afterwards.
type Rendered struct {
	Text         string
	StyleRanges  []Range
	BulletRanges []Range
}

// Lines lays the document out paragraph by paragraph.
func (c *DocContent) Lines() []Line {
	lines := []Line{
		{Text: c.Title, Style: StyleTitle},
		{Text: c.Summary},
		{Text: ""},
	}
	for _, section := range c.Sections {
		lines = append(lines, Line{Text: section.Heading, Style: StyleHeading2})
		for _, paragraph := range section.Paragraphs {
			lines = append(lines, Line{Text: paragraph})
		}
		for _, bullet := range section.Bullets {
			lines = append(lines, Line{Text: bullet, Bullet: true})
		}
		lines = append(lines, Line{Text: ""})
	}
	for _, meta := range c.Metadata {
		lines = append(lines, Line{Text: meta})
	}
	return lines
}

// Render flattens the lines into one text insertion starting at index 1,
// with per-line style ranges and consecutive bullet runs merged into
// single bullet ranges.
func (c *DocContent) Render() Rendered {
	cursor := 1
	var text []byte
	var styleRanges []Range
	var bulletRanges []Range
	bulletStart, bulletEnd := 0, 0

	flushBullets := func() {
		if bulletStart != 0 {
			bulletRanges = append(bulletRanges, Range{Start: bulletStart, End: bulletEnd})
		}
		bulletStart, bulletEnd = 0, 0
	}

	for _, line := range c.Lines() {
		start := cursor
		text = append(text, line.Text...)
		text = append(text, '\n')
		cursor += len(line.Text) + 1
		end := cursor - 1

		if line.Style != "" {
			styleRanges = append(styleRanges, Range{Start: start, End: end, Style: line.Style})
		}
		if line.Bullet {
			if bulletStart == 0 {
				bulletStart = start
			}
			bulletEnd = end
		} else {
			flushBullets()
		}
	}
	flushBullets()

	return Rendered{Text: string(text), StyleRanges: styleRanges, BulletRanges: bulletRanges}
}
