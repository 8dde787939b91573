package terminal

import (
	"context"
	"strconv"

	"github.com/rivo/uniseg"

	service "github.com/okian/bookarena/internal/app"
)

const gameIntro = ` Let's rank some books!
 Books will face-off in random matches to craft the ultimate book ranking.
 Options:
   1 → Selects book #1
   2 → Selects book #2
   b → Back to main menu
   q → Quits program
 Let's get started!`

// Intro prints the play instructions.
func (c *Console) Intro() {
	c.println("")
	c.rule(colBlue, "BOOK ARENA")
	c.println(gameIntro)
}

// Prompt shows one pair and reads the answer.
func (c *Console) Prompt(_ context.Context, match int, p service.Pair) (string, error) {
	label := "–– " + strconv.Itoa(match) + " ––"
	c.println("")
	c.println(c.paint(colBold+colBlue, indent(lineWidth-uniseg.StringWidth(label))+label))
	c.println(c.paint(colBold+colYellow, " Which means more to you?"))
	c.println("   " + c.paint(colBold+colYellow, "1.") + " " + p.A.String())
	c.println("   " + c.paint(colBold+colYellow, "2.") + " " + p.B.String())
	return c.ask(c.paint(colBold+colYellow, " > "))
}

// Reject explains the accepted inputs.
func (c *Console) Reject(_ context.Context, _ string) {
	c.Warn("Invalid choice - try '1', '2', 'b', or 'q' to quit.")
}
