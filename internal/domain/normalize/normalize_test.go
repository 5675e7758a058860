package normalize_test

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/geoleague/internal/domain/model"
	"github.com/okian/geoleague/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/tidwall/gjson"
)

func items(raw string) []gjson.Result {
	return gjson.Parse(raw).Array()
}

type fakeLookup struct {
	mu    sync.Mutex
	calls map[string]int
	times map[string]int64
}

func newFakeLookup(times map[string]int64) *fakeLookup {
	return &fakeLookup{calls: map[string]int{}, times: times}
}

func (f *fakeLookup) PlayedAt(_ context.Context, token string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[token]++
	v, ok := f.times[token]
	return v, ok
}

func TestNormalizerMap(t *testing.T) {
	ctx := context.Background()
	mc := normalize.MapContext{Week: "Vecka 1", Index: 2, URL: "https://x/challenge/abc", Token: "abc"}

	Convey("Given a leaderboard page with good and bad rows", t, func() {
		raw := items(`[
			{"game":{"mapName":" World ","forbidMoving":true,"forbidZooming":true,"forbidRotating":true,"timeLimit":60,
			         "token":"g1","player":{"nick":" alice ","totalScore":{"amount":"12,345"},"totalTime":120}}},
			{"game":{"token":"g2","player":{"nick":"bob","totalScoreInPoints":9000}}},
			{"game":{"player":{"nick":"   ","totalScore":{"amount":"1"}}}},
			{"game":{"player":{"nick":42}}},
			{"other":true},
			"not an object",
			{"game":{"player":{"nick":"carol","totalScore":{"amount":"n/a"},"totalTime":"slow"}}}
		]`)

		Convey("When normalized without a resolver", func() {
			entries := normalize.New().Map(ctx, mc, raw)

			Convey("Then anonymous and malformed rows are dropped", func() {
				So(len(entries), ShouldEqual, 3)
				So(entries[0].Player, ShouldEqual, "alice")
				So(entries[1].Player, ShouldEqual, "bob")
				So(entries[2].Player, ShouldEqual, "carol")
			})

			Convey("And scores fall back through the known fields", func() {
				So(entries[0].TotalPoints, ShouldEqual, 12345)
				So(entries[0].TotalTime, ShouldEqual, 120)
				So(entries[1].TotalPoints, ShouldEqual, 9000)
				So(entries[1].TotalTime, ShouldEqual, model.TimeSentinel)
				So(entries[2].TotalPoints, ShouldEqual, 0)
				So(entries[2].TotalTime, ShouldEqual, model.TimeSentinel)
			})

			Convey("And map metadata comes from the first game", func() {
				for _, e := range entries {
					So(e.Week, ShouldEqual, "Vecka 1")
					So(e.MapIndex, ShouldEqual, 2)
					So(e.MapToken, ShouldEqual, "abc")
					So(e.MapURL, ShouldEqual, mc.URL)
					So(e.MapName, ShouldEqual, "World")
					So(e.RuleText, ShouldEqual, "NMPZ - 1 min")
					So(e.PlayedAtEpoch, ShouldBeNil)
				}
			})
		})
	})

	Convey("Given a map whose games carry no name", t, func() {
		entries := normalize.New().Map(ctx, mc, items(`[{"game":{"player":{"nick":"a"}}}]`))

		Convey("Then the map is named after its position", func() {
			So(entries[0].MapName, ShouldEqual, "Map 2")
			So(entries[0].RuleText, ShouldEqual, "Moving")
		})
	})

	Convey("Given the same player twice on one map", t, func() {
		raw := items(`[
			{"game":{"player":{"nick":"a","totalScoreInPoints":100}}},
			{"game":{"player":{"nick":"b","totalScoreInPoints":50}}},
			{"game":{"player":{"nick":"a","totalScoreInPoints":300}}}
		]`)
		entries := normalize.New().Map(ctx, mc, raw)

		Convey("Then the last row wins at the first position", func() {
			So(len(entries), ShouldEqual, 2)
			So(entries[0].Player, ShouldEqual, "a")
			So(entries[0].TotalPoints, ShouldEqual, 300)
			So(entries[1].Player, ShouldEqual, "b")
		})
	})

	Convey("Given an empty page", t, func() {
		So(normalize.New().Map(ctx, mc, nil), ShouldBeEmpty)
	})

	Convey("Given a resolver", t, func() {
		lookup := newFakeLookup(map[string]int64{"g1": 1700000000})
		res := normalize.NewPlayedAtResolver(lookup)
		n := normalize.New(normalize.WithResolver(res))
		raw := items(`[
			{"game":{"token":"g1","player":{"nick":"a"}}},
			{"game":{"token":"g2","player":{"nick":"b"}}},
			{"game":{"player":{"nick":"c"}}}
		]`)

		Convey("When the same games are normalized twice", func() {
			first := n.Map(ctx, mc, raw)
			second := n.Map(ctx, mc, raw)

			Convey("Then resolved games carry their time", func() {
				So(*first[0].PlayedAtEpoch, ShouldEqual, 1700000000)
				So(first[1].PlayedAtEpoch, ShouldBeNil)
				So(first[2].PlayedAtEpoch, ShouldBeNil)
				So(*second[0].PlayedAtEpoch, ShouldEqual, 1700000000)
			})

			Convey("And each token is looked up once, failures included", func() {
				So(lookup.calls, ShouldResemble, map[string]int{"g1": 1, "g2": 1})
				So(res.Cache().Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given two resolvers sharing one cache", t, func() {
		lookup := newFakeLookup(map[string]int64{"g1": 1700000000})
		first := normalize.NewPlayedAtResolver(lookup)
		second := normalize.NewPlayedAtResolver(lookup, normalize.WithCache(first.Cache()))

		So(*first.Resolve(ctx, "g1"), ShouldEqual, 1700000000)
		So(first.Resolve(ctx, "g2"), ShouldBeNil)

		Convey("Then the second one answers from the cache", func() {
			So(*second.Resolve(ctx, "g1"), ShouldEqual, 1700000000)
			So(second.Resolve(ctx, "g2"), ShouldBeNil)
			So(lookup.calls, ShouldResemble, map[string]int{"g1": 1, "g2": 1})
			So(second.Cache(), ShouldPointTo, first.Cache())
		})
	})

	Convey("Given a nil shared cache", t, func() {
		res := normalize.NewPlayedAtResolver(newFakeLookup(nil), normalize.WithCache(nil))
		So(res.Cache(), ShouldNotBeNil)
	})
}

func TestRuleText(t *testing.T) {
	Convey("Given the restriction flags of a game", t, func() {
		cases := map[string]string{
			`{"forbidMoving":true,"forbidZooming":true,"forbidRotating":true}`:   "NMPZ",
			`{"forbidMoving":true,"forbidZooming":false,"forbidRotating":true}`:  "NMP",
			`{"forbidMoving":true,"forbidRotating":true}`:                        "NM",
			`{"forbidMoving":true,"forbidZooming":false,"forbidRotating":false}`: "NM",
			`{"forbidMoving":false,"forbidZooming":true,"forbidRotating":true}`:  "Moving",
			`{}`: "Moving",
			`{"forbidMoving":true,"forbidZooming":true,"forbidRotating":true,"timeLimit":120}`: "NMPZ - 2 min",
			`{"forbidMoving":true,"timeLimit":90}`:                                             "NM - 90s",
			`{"timeLimit":0}`:                                                                  "Moving",
			`{"timeLimit":"60"}`:                                                               "Moving",
			`{"timeLimit":-60}`:                                                                "Moving",
			`{"timeLimit":true}`:                                                               "Moving",
			`{"timeLimit":60.0}`:                                                               "Moving",
			`{"forbidMoving":true,"timeLimit":6e1}`:                                            "NM",
		}
		for raw, want := range cases {
			So(normalize.RuleText(gjson.Parse(raw)), ShouldEqual, want)
		}
	})
}

func TestPlayedAtCache(t *testing.T) {
	Convey("Given a new cache", t, func() {
		c := normalize.NewPlayedAtCache()

		_, _, found := c.Get("g")
		So(found, ShouldBeFalse)
		So(c.Size(), ShouldEqual, 0)

		Convey("When outcomes are recorded", func() {
			c.Record("g", 0, false)
			c.Record("g", 123, true)
			c.Record("h", 456, true)

			Convey("Then the first outcome for a token sticks", func() {
				_, resolved, found := c.Get("g")
				So(found, ShouldBeTrue)
				So(resolved, ShouldBeFalse)

				epoch, resolved, _ := c.Get("h")
				So(resolved, ShouldBeTrue)
				So(epoch, ShouldEqual, 456)
				So(c.Size(), ShouldEqual, 2)
			})
		})

		Convey("When used concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					c.Record("same", 1, true)
					c.Get("same")
				}()
			}
			wg.Wait()

			So(c.Size(), ShouldEqual, 1)
		})
	})
}

func TestMeta(t *testing.T) {
	Convey("Given rows where the first usable game is not the first row", t, func() {
		mc := normalize.MapContext{Week: "W", Index: 3, URL: "u", Token: "t"}
		raw := items(`["junk", {"nogame":1}, {"game":{"mapName":"A Diverse World","forbidMoving":true}}]`)

		So(normalize.Meta(mc, raw), ShouldResemble, model.MapMeta{
			Week: "W", Index: 3, URL: "u", Token: "t", Name: "A Diverse World", RuleText: "NM",
		})
	})

	Convey("Given a map without rows", t, func() {
		m := normalize.Meta(normalize.MapContext{Week: "W", Index: 4}, nil)
		So(m.Name, ShouldEqual, "Map 4")
		So(m.RuleText, ShouldEqual, "")
	})
}
