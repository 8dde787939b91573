package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/bookarena/internal/adapters/csvio"
	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/domain/confidence"
	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/pkg/logger"
)

const mainMenu = ` 1. Play
 2. View Rankings
 3. Import New Books
 4. Export Rankings
 5. Quit`

// Engine is the part of the ranking engine the menu drives.
type Engine interface {
	Run(ctx context.Context, p service.Prompter) (service.Exit, error)
	Rankings(ctx context.Context) []model.Ranked
	Reload(ctx context.Context) error
	Population() int
	Aggregate() float64
}

// App is the main menu loop.
type App struct {
	console *Console
	engine  Engine
	library csvio.Library

	exportDir   string
	initialPage int
	page        int
	onQuit      func(ctx context.Context) error
	now         func() time.Time
	logger      logger.Logger
}

// AppOption applies a configuration option to the App.
type AppOption func(*App)

// WithExportDir sets where exports are written.
func WithExportDir(dir string) AppOption {
	return func(a *App) {
		if dir != "" {
			a.exportDir = dir
		}
	}
}

// WithPageSizes sets the rankings page sizes.
func WithPageSizes(initial, page int) AppOption {
	return func(a *App) {
		if initial > 0 {
			a.initialPage = initial
		}
		if page > 0 {
			a.page = page
		}
	}
}

// WithQuitHook runs fn once when the user quits, before the goodbye.
func WithQuitHook(fn func(ctx context.Context) error) AppOption {
	return func(a *App) {
		a.onQuit = fn
	}
}

// WithAppClock overrides time.Now for export names.
func WithAppClock(now func() time.Time) AppOption {
	return func(a *App) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAppLogger sets a custom logger.
func WithAppLogger(l logger.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewApp wires the menu to its console, engine and library.
func NewApp(console *Console, engine Engine, library csvio.Library, opts ...AppOption) *App {
	a := &App{
		console:     console,
		engine:      engine,
		library:     library,
		exportDir:   "exports",
		initialPage: DefaultInitialPage,
		page:        DefaultPage,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("terminal")
	}
	return a
}

// Run shows the menu until the user quits or input ends. Both run the quit
// hook and return nil. Read failures and a done ctx are returned.
func (a *App) Run(ctx context.Context) error {
	c := a.console
	c.println("")
	c.centered(colGreen, "BOOK RANKER")

	if a.engine.Population() == 0 {
		c.println(" Your library is empty!")
		c.println(" Please provide the path to a CSV file of your book log to get started.")
		c.println(" It should have the following columns: 'title', 'author', 'rating'.")
		c.println("")
		if err := a.importPrompt(ctx); err != nil {
			return a.quit(ctx, err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.summary()
		c.rule(colBlue, "MAIN MENU")
		c.println(mainMenu)

		choice, err := c.ask("\n" + c.paint(colBold+colYellow, " > "))
		if err != nil {
			return a.quit(ctx, err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			if done, err := a.play(ctx); done {
				return a.quit(ctx, err)
			}
		case "2", "2 -v":
			verbose := strings.TrimSpace(choice) == "2 -v"
			action, err := c.Rankings(a.engine.Rankings(ctx), verbose, a.initialPage, a.page)
			if err != nil || action == RankingsQuit {
				return a.quit(ctx, err)
			}
			if action == RankingsExport {
				a.export(ctx)
			}
		case "3":
			c.println(" Please provide the path to your CSV book log to sync new books.")
			if err := a.importPrompt(ctx); err != nil {
				return a.quit(ctx, err)
			}
		case "4":
			a.export(ctx)
		case "5":
			return a.quit(ctx, nil)
		default:
			c.Warn("Invalid choice, I can only read options 1-5.")
		}
		c.println("")
	}
}

func (a *App) summary() {
	n := a.engine.Population()
	if n == 0 {
		return
	}
	score := a.engine.Aggregate()
	a.console.println(a.console.paint(colDim, fmt.Sprintf(" %s books, overall confidence %.0f%% (%s)",
		humanize.Comma(int64(n)), score*100, tierText[string(confidence.Label(score))])))
}

// play runs one comparison session. done means the program should end.
func (a *App) play(ctx context.Context) (done bool, err error) {
	c := a.console
	c.Intro()
	exit, err := a.engine.Run(ctx, c)
	switch {
	case errors.Is(err, service.ErrDegeneratePopulation):
		c.Warn("You need at least two books to play. Import some first.")
		return false, nil
	case errors.Is(err, service.ErrPersistence):
		a.logger.Error(ctx, "comparison failed", logger.Error(err))
		c.Warn("Could not save that comparison, nothing was changed: " + err.Error())
		return false, nil
	case err != nil:
		return true, err
	}
	return exit == service.ExitQuit, nil
}

// importPrompt asks for CSV paths until one imports or the user goes back.
// Only read errors are returned.
func (a *App) importPrompt(ctx context.Context) error {
	c := a.console
	for {
		path, err := c.ask(" CSV file path (b to go back): ")
		if err != nil {
			return err
		}
		path = strings.TrimSpace(path)
		if path == "b" {
			c.println("")
			return nil
		}
		if path == "" {
			c.println(" Invalid path. Please try again.")
			c.println("")
			continue
		}
		if _, err := os.Stat(path); err != nil {
			c.println(" Invalid path. Please try again.")
			c.println("")
			continue
		}

		n, err := csvio.ImportFile(ctx, path, a.library)
		switch {
		case errors.Is(err, csvio.ErrNotCSV):
			c.println(" That doesn't look like a CSV file. Please provide the full path to your CSV file.")
			c.println("")
			continue
		case errors.Is(err, csvio.ErrMissingColumn):
			c.Warn("Error! " + err.Error() + ".")
		case errors.Is(err, csvio.ErrInvalidRating):
			c.Warn("Error! " + err.Error() + ".")
		case err != nil:
			a.logger.Error(ctx, "import failed", logger.String("path", path), logger.Error(err))
			c.Warn("Error! " + err.Error())
		}
		if err != nil {
			c.println(" No books imported. Please check your file and try again.")
			c.println("")
			continue
		}

		if n == 0 {
			c.println(" No new books found, your library already has them all.")
			c.println("")
			return nil
		}
		if err := a.engine.Reload(ctx); err != nil {
			a.logger.Error(ctx, "reload after import failed", logger.Error(err))
			c.Warn("Imported, but reloading the library failed: " + err.Error())
			return nil
		}
		a.logger.Info(ctx, "books imported", logger.String("path", path), logger.Int("count", n))
		c.println(fmt.Sprintf(" Imported %s books!", humanize.Comma(int64(n))))
		c.println("")
		return nil
	}
}

func (a *App) export(ctx context.Context) {
	path, err := csvio.Export(a.exportDir, a.engine.Rankings(ctx), a.now())
	if err != nil {
		a.logger.Error(ctx, "export failed", logger.Error(err))
		a.console.Warn("Export failed: " + err.Error())
		return
	}
	a.logger.Info(ctx, "rankings exported", logger.String("path", path))
	a.console.Success("Rankings exported to: " + path)
}

// quit runs the hook and says goodbye. End of input is a normal quit.
func (a *App) quit(ctx context.Context, cause error) error {
	if errors.Is(cause, io.EOF) {
		cause = nil
	}
	if a.onQuit != nil {
		if err := a.onQuit(ctx); err != nil {
			a.logger.Error(ctx, "quit hook failed", logger.Error(err))
			a.console.Warn("Backup failed: " + err.Error())
		}
	}
	a.console.println("")
	a.console.centered(colGreen, "📚 Goodbye! Keep on reading 📚")
	return cause
}
