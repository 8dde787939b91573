package csvio_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/bookarena/internal/adapters/csvio"
	repository "github.com/okian/bookarena/internal/adapters/repository"
	"github.com/okian/bookarena/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const bookLog = ` Title ,AUTHOR,Rating,Shelf
Dune,Frank Herbert,9,read
Emma,Jane Austen,  5.5 ,read
dune ,frank herbert,8,re-read
`

func TestParse(t *testing.T) {
	Convey("Given a book log with loose headers", t, func() {
		items, err := csvio.Parse(strings.NewReader(bookLog))
		So(err, ShouldBeNil)
		So(len(items), ShouldEqual, 3)

		Convey("Then fields are trimmed and skills derived from ratings", func() {
			So(items[0].Title, ShouldEqual, "Dune")
			So(items[0].Skill, ShouldEqual, 1156)
			So(items[1].Rating, ShouldEqual, 5.5)
			So(items[1].Skill, ShouldEqual, 1000)
			So(items[2].Title, ShouldEqual, "dune")
		})
	})

	Convey("Given a log without an author column", t, func() {
		_, err := csvio.Parse(strings.NewReader("title,rating\nDune,9\n"))
		So(errors.Is(err, csvio.ErrMissingColumn), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "author")
	})

	Convey("Given an empty file", t, func() {
		_, err := csvio.Parse(strings.NewReader(""))
		So(errors.Is(err, csvio.ErrMissingColumn), ShouldBeTrue)
	})

	Convey("Given bad ratings", t, func() {
		for _, raw := range []string{"ten", "0", "10.5", ""} {
			_, err := csvio.Parse(strings.NewReader("title,author,rating\nDune,Frank Herbert,9\nX,Y," + raw + "\n"))
			So(errors.Is(err, csvio.ErrInvalidRating), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "line 3")
		}
	})
}

func TestImport(t *testing.T) {
	Convey("Given a library that already holds Emma", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore(model.Item{ID: 1, Title: "EMMA", Author: "jane austen", Rating: 6, Skill: 1022})

		Convey("When the log is imported", func() {
			n, err := csvio.Import(ctx, strings.NewReader(bookLog), store)
			So(err, ShouldBeNil)

			Convey("Then only Dune is added, once", func() {
				So(n, ShouldEqual, 1)
				items, _ := store.LoadAll(ctx)
				So(len(items), ShouldEqual, 2)
				So(items[1].Title, ShouldEqual, "Dune")
				So(items[1].Skill, ShouldEqual, 1156)
			})

			Convey("Then importing again adds nothing", func() {
				n, err := csvio.Import(ctx, strings.NewReader(bookLog), store)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})
		})

		Convey("When one row is invalid", func() {
			n, err := csvio.Import(ctx, strings.NewReader("title,author,rating\nDune,Frank Herbert,9\nUbik,Philip K. Dick,11\n"), store)

			Convey("Then nothing is imported", func() {
				So(errors.Is(err, csvio.ErrInvalidRating), ShouldBeTrue)
				So(n, ShouldEqual, 0)
				items, _ := store.LoadAll(ctx)
				So(len(items), ShouldEqual, 1)
			})
		})
	})

	Convey("Given paths on disk", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		dir := t.TempDir()

		Convey("Then a non-csv path is refused", func() {
			_, err := csvio.ImportFile(ctx, filepath.Join(dir, "books.txt"), store)
			So(errors.Is(err, csvio.ErrNotCSV), ShouldBeTrue)
		})

		Convey("Then a missing file reports not exist", func() {
			_, err := csvio.ImportFile(ctx, filepath.Join(dir, "missing.csv"), store)
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})

		Convey("Then a real file imports", func() {
			path := filepath.Join(dir, "Books.CSV")
			So(os.WriteFile(path, []byte(bookLog), 0o600), ShouldBeNil)
			n, err := csvio.ImportFile(ctx, path, store)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})
}

func ranked() []model.Ranked {
	return []model.Ranked{
		{Rank: 1, ID: 2, Title: "Dune", Author: "Frank Herbert", Rating: 9, Skill: 1180, Confidence: 0.55},
		{Rank: 2, ID: 1, Title: "Emma, Abridged", Author: "Jane Austen", Rating: 5.5, Skill: 990, Confidence: 0.3333},
	}
}

func TestExport(t *testing.T) {
	Convey("Given ranked books", t, func() {
		Convey("When written as CSV", func() {
			var buf bytes.Buffer
			So(csvio.WriteRankings(&buf, ranked()), ShouldBeNil)

			Convey("Then rows follow the header and fields are quoted when needed", func() {
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(lines, ShouldResemble, []string{
					"Rank,Title,Author,Rating,Score,Confidence",
					"1,Dune,Frank Herbert,9,1180,0.55",
					`2,"Emma, Abridged",Jane Austen,5.5,990,0.33`,
				})
			})
		})

		Convey("When exported twice on the same day", func() {
			dir := filepath.Join(t.TempDir(), "exports")
			day := time.Date(2026, 3, 7, 18, 0, 0, 0, time.UTC)

			first, err := csvio.Export(dir, ranked(), day)
			So(err, ShouldBeNil)
			second, err := csvio.Export(dir, ranked(), day)
			So(err, ShouldBeNil)
			third, err := csvio.Export(dir, ranked(), day)
			So(err, ShouldBeNil)

			Convey("Then later files get a counter suffix", func() {
				So(filepath.Base(first), ShouldEqual, "book_rankings_2026-03-07.csv")
				So(filepath.Base(second), ShouldEqual, "book_rankings_2026-03-07_2.csv")
				So(filepath.Base(third), ShouldEqual, "book_rankings_2026-03-07_3.csv")

				data, err := os.ReadFile(first)
				So(err, ShouldBeNil)
				So(string(data), ShouldStartWith, "Rank,Title")
			})
		})
	})
}
