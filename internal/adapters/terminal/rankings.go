package terminal

import (
	"strconv"
	"strings"

	"github.com/rivo/uniseg"

	"github.com/okian/bookarena/internal/domain/confidence"
	"github.com/okian/bookarena/internal/domain/model"
)

// Default page sizes of the rankings view.
const (
	DefaultInitialPage = 100
	DefaultPage        = 50
)

// RankingsAction is how the user left the rankings view.
type RankingsAction int

const (
	RankingsBack RankingsAction = iota
	RankingsExport
	RankingsQuit
)

// Column widths. Title and author share what the fixed columns leave over.
const (
	rankWidth   = 5
	tierWidth   = 12
	skillWidth  = 6
	columnGap   = 2
	titleShare  = 0.6
	minFlexible = 10
)

var tierText = map[string]string{
	string(confidence.VeryLow):  "Very Low",
	string(confidence.Low):      "Low",
	string(confidence.Moderate): "Moderate",
	string(confidence.High):     "High",
	string(confidence.VeryHigh): "Very High",
}

var tierColor = map[string]string{
	string(confidence.VeryLow):  colRed,
	string(confidence.Low):      colYellow,
	string(confidence.Moderate): colYellow,
	string(confidence.High):     colGreen,
	string(confidence.VeryHigh): colBold + colGreen,
}

// Rankings shows ranked one page at a time: initial rows first, then page
// more per "n". It returns when the user picks back, export or quit.
func (c *Console) Rankings(ranked []model.Ranked, verbose bool, initial, page int) (RankingsAction, error) {
	c.println("")
	c.centered(colGreen, "CURRENT RANKINGS")

	end := min(initial, len(ranked))
	c.table(ranked, 0, end, verbose)

	menuIndent := indent(lineWidth - 23)
	for {
		more := end < len(ranked)
		if more {
			c.println(menuIndent + c.paint(colYellow, "n → See next "+strconv.Itoa(page)))
		}
		c.println(menuIndent + "b → Main menu")
		c.println(menuIndent + "e → Export rankings")
		c.println(menuIndent + "q → Quit")

		choice, err := c.ask(indent(lineWidth-5) + c.paint(colYellow, "> "))
		for err == nil {
			choice = strings.ToLower(strings.TrimSpace(choice))
			if choice == "b" || choice == "e" || choice == "q" || (more && choice == "n") {
				break
			}
			choice, err = c.ask(indent(lineWidth-41) + c.paint(colRed, "⚠️ Invalid choice, please try again > "))
		}
		if err != nil {
			return RankingsQuit, err
		}

		switch choice {
		case "n":
			start := end
			end = min(end+page, len(ranked))
			c.table(ranked, start, end, verbose)
		case "e":
			return RankingsExport, nil
		case "q":
			return RankingsQuit, nil
		default:
			return RankingsBack, nil
		}
	}
}

func (c *Console) table(ranked []model.Ranked, start, end int, verbose bool) {
	fixed := rankWidth + tierWidth + 3*columnGap
	if verbose {
		fixed += skillWidth + columnGap
	}
	flexible := max(2*minFlexible, lineWidth-fixed)
	titleWidth := int(float64(flexible) * titleShare)
	authorWidth := flexible - titleWidth

	gap := strings.Repeat(" ", columnGap)
	header := center("#", rankWidth) + gap + fit("TITLE", titleWidth) + gap + fit("AUTHOR", authorWidth) + gap + fit("CONFIDENCE", tierWidth)
	if verbose {
		header += gap + fit("SKILL", skillWidth)
	}
	border := c.paint(colBlue, strings.Repeat("─", lineWidth))

	c.println(border)
	c.println(c.paint(colBold+colGreen, header))
	c.println(border)
	for _, r := range ranked[start:end] {
		tier := c.paint(tierColor[r.Tier], fit(tierText[r.Tier], tierWidth))
		row := c.paint(colBold+colGreen, center(strconv.Itoa(r.Rank), rankWidth)) + gap +
			fit(r.Title, titleWidth) + gap +
			c.paint(colDim, fit(r.Author, authorWidth)) + gap +
			tier
		if verbose {
			row += gap + fit(strconv.Itoa(r.Skill), skillWidth)
		}
		c.println(strings.TrimRight(row, " "))
	}
	c.println(border)
}

// fit pads or truncates s to exactly width terminal cells.
func fit(s string, width int) string {
	w := uniseg.StringWidth(s)
	if w <= width {
		return s + strings.Repeat(" ", width-w)
	}

	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cw := g.Width()
		if used+cw > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += cw
	}
	b.WriteString("…")
	used++
	return b.String() + strings.Repeat(" ", width-used)
}

func center(s string, width int) string {
	w := uniseg.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}
