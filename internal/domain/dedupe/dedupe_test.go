package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/bookarena/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a key is claimed for the first time", func() {
			result, seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it is new and counted", func() {
				So(seen, ShouldBeFalse)
				So(result, ShouldBeNil)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a second claim sees it in flight", func() {
				result, seen := d.SeenAndRecord(ctx, "key-1")
				So(seen, ShouldBeTrue)
				So(result, ShouldBeNil)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then a completed key replays its result", func() {
				d.Complete(ctx, "key-1", []byte(`{"ok":true}`))
				result, seen := d.SeenAndRecord(ctx, "key-1")
				So(seen, ShouldBeTrue)
				So(string(result), ShouldEqual, `{"ok":true}`)
			})

			Convey("Then unrecording frees it for a retry", func() {
				d.Unrecord(ctx, "key-1")
				So(d.Size(), ShouldEqual, 0)
				_, seen := d.SeenAndRecord(ctx, "key-1")
				So(seen, ShouldBeFalse)
			})
		})

		Convey("When completing or unrecording an unknown key", func() {
			d.Complete(ctx, "nope", []byte("x"))
			d.Unrecord(ctx, "nope")

			Convey("Then nothing is stored", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given a deduper bounded to three keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, k := range []string{"a", "b", "c"} {
			_, seen := d.SeenAndRecord(ctx, k)
			So(seen, ShouldBeFalse)
		}

		Convey("When a fourth key arrives", func() {
			_, seen := d.SeenAndRecord(ctx, "d")
			So(seen, ShouldBeFalse)

			Convey("Then the oldest is forgotten and the rest remain", func() {
				So(d.Size(), ShouldEqual, 3)
				_, seen := d.SeenAndRecord(ctx, "c")
				So(seen, ShouldBeTrue)
				_, seen = d.SeenAndRecord(ctx, "a")
				So(seen, ShouldBeFalse)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
		const n = 1000
		for i := range n {
			d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i))
		}
		So(d.Size(), ShouldEqual, n)
		_, seen := d.SeenAndRecord(ctx, "key-0")
		So(seen, ShouldBeTrue)
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given many goroutines racing for the same keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const keys = 100

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for range goroutines {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range keys {
					if _, seen := d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", j)); !seen {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each key is claimed exactly once", func() {
			So(fresh, ShouldEqual, keys)
			So(d.Size(), ShouldEqual, keys)
		})
	})
}
