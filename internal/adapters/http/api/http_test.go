package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/bookarena/internal/adapters/http/api"
	repository "github.com/okian/bookarena/internal/adapters/repository"
	service "github.com/okian/bookarena/internal/app"
	"github.com/okian/bookarena/internal/domain/dedupe"
	"github.com/okian/bookarena/internal/domain/model"
	"github.com/okian/bookarena/internal/domain/selection"
	"github.com/okian/bookarena/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var errDisk = errors.New("disk full")

func books(n int) *repository.MemoryStore {
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{ID: int64(i + 1), Title: fmt.Sprintf("Book %d", i+1), Author: "A", Rating: 5, Skill: 1000 + 10*i}
	}
	return repository.NewMemoryStore(items...)
}

func newMux(store *repository.MemoryStore, opts ...api.Option) (*http.ServeMux, *service.Engine) {
	engine := service.New(store,
		service.WithLogger(logger.Nop()),
		service.WithSelector(selection.New(selection.WithSeed(9))),
	)
	So(engine.Open(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(engine, append([]api.Option{api.WithLogger(logger.Nop())}, opts...)...).Register(mux)
	return mux, engine
}

func do(mux *http.ServeMux, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server over five books", t, func() {
		mux, _ := newMux(books(5))

		Convey("Then health serves metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bookarena_engine_items_total")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("Then a supplied request id is echoed", func() {
			w := do(mux, http.MethodGet, "/stats", "", api.RequestIDHeader, "req-42")
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "req-42")
		})

		Convey("Then stats describe the session", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](w)
			So(stats["open"], ShouldEqual, true)
			So(stats["items"], ShouldEqual, 5)
		})

		Convey("Then wrong methods are refused by the mux", func() {
			w := do(mux, http.MethodPost, "/rankings", "{}")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			w = do(mux, http.MethodGet, "/comparisons", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestRankingsHandler(t *testing.T) {
	Convey("Given a server capped at three rankings", t, func() {
		mux, _ := newMux(books(5), api.WithMaxRankingsLimit(3))

		Convey("When requesting rankings without a limit", func() {
			w := do(mux, http.MethodGet, "/rankings", "")

			Convey("Then the cap applies and order is by skill", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				entries := decode[[]model.Ranked](w)
				So(len(entries), ShouldEqual, 3)
				So(entries[0].ID, ShouldEqual, 5)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Tier, ShouldEqual, "very-low")
			})
		})

		Convey("When requesting two", func() {
			w := do(mux, http.MethodGet, "/rankings?limit=2", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decode[[]model.Ranked](w)), ShouldEqual, 2)
		})

		Convey("When the limit is bad", func() {
			for target, code := range map[string]string{
				"/rankings?limit=0":   "bad_request",
				"/rankings?limit=abc": "bad_request",
				"/rankings?limit=4":   "limit_exceeded",
			} {
				w := do(mux, http.MethodGet, target, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, code)
			}
		})

		Convey("When asking for one item", func() {
			w := do(mux, http.MethodGet, "/rankings/1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[model.Ranked](w).Rank, ShouldEqual, 5)

			So(do(mux, http.MethodGet, "/rankings/77", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/rankings/xyz", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestPairHandler(t *testing.T) {
	Convey("Given a server over two books", t, func() {
		mux, _ := newMux(books(2))

		Convey("Then a pair holds both", func() {
			w := do(mux, http.MethodGet, "/pair", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			p := decode[service.Pair](w)
			So(p.A.ID+p.B.ID, ShouldEqual, 3)
		})
	})

	Convey("Given a server over one book", t, func() {
		mux, _ := newMux(books(1))

		Convey("Then no pair can be formed", func() {
			w := do(mux, http.MethodGet, "/pair", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "degenerate_population")
		})
	})
}

func TestComparisonsHandler(t *testing.T) {
	Convey("Given a server over two equal books", t, func() {
		store := repository.NewMemoryStore(
			model.Item{ID: 1, Title: "Dune", Author: "Frank Herbert", Skill: 1000},
			model.Item{ID: 2, Title: "Emma", Author: "Jane Austen", Skill: 1000},
		)
		mux, engine := newMux(store, api.WithDeduper(dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10))))
		ctx := context.Background()

		Convey("When a comparison is posted", func() {
			w := do(mux, http.MethodPost, "/comparisons", `{"winner_id":1,"loser_id":2}`)

			Convey("Then the outcome carries both new skills", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				out := decode[service.Outcome](w)
				So(out.Winner.Skill, ShouldEqual, 1020)
				So(out.Loser.Skill, ShouldEqual, 980)
				So(engine.GetStats()["comparisons"], ShouldEqual, 1)
			})
		})

		Convey("When the same idempotency key is sent twice", func() {
			body := `{"winner_id":2,"loser_id":1}`
			first := do(mux, http.MethodPost, "/comparisons", body, api.IdempotencyHeader, "k-1")
			second := do(mux, http.MethodPost, "/comparisons", body, api.IdempotencyHeader, "k-1")

			Convey("Then it is applied once and replayed", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(second.Header().Get(api.ReplayedHeader), ShouldEqual, "true")
				So(second.Body.String(), ShouldEqual, first.Body.String())
				records, _ := store.Comparisons(ctx)
				So(len(records), ShouldEqual, 1)
			})
		})

		Convey("When the commit fails under a key", func() {
			store.FailOn(repository.OpRecordComparison, errDisk)
			w := do(mux, http.MethodPost, "/comparisons", `{"winner_id":1,"loser_id":2}`, api.IdempotencyHeader, "k-2")

			Convey("Then it is a server error and the key can be retried", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "persistence_failure")

				store.FailOn(repository.OpRecordComparison, nil)
				retry := do(mux, http.MethodPost, "/comparisons", `{"winner_id":1,"loser_id":2}`, api.IdempotencyHeader, "k-2")
				So(retry.Code, ShouldEqual, http.StatusOK)
				So(retry.Header().Get(api.ReplayedHeader), ShouldBeEmpty)
			})
		})

		Convey("When the body is wrong", func() {
			for _, body := range []string{
				`not json`,
				`{"winner_id":1}`,
				`{"winner_id":1,"loser_id":1}`,
				`{"winner_id":1,"loser_id":2,"extra":true}`,
			} {
				w := do(mux, http.MethodPost, "/comparisons", body)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When an id is unknown", func() {
			w := do(mux, http.MethodPost, "/comparisons", `{"winner_id":1,"loser_id":9}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(w.Body.String(), ShouldContainSubstring, "unknown_item")
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given a request id stored by the middleware", t, func() {
		var seen string
		h := api.MetricsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			seen = api.RequestID(r.Context())
			w.WriteHeader(http.StatusTeapot)
		}, "probe", logger.Nop())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(api.RequestIDHeader, "abc")
		h(w, req)

		So(seen, ShouldEqual, "abc")
		So(w.Code, ShouldEqual, http.StatusTeapot)
		So(api.RequestID(context.Background()), ShouldBeEmpty)
	})

	Convey("Given the api error helpers", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes both match", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Then the narrow forms render cleanly", func() {
			So(api.NewKind("api.op", api.ErrConflict).Error(), ShouldEqual, "api.op: conflict")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
