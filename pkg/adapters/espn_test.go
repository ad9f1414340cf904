package adapters_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gridiron/pkg/adapters"
	"github.com/papercomputeco/gridiron/pkg/logger"
)

const billsRoster = `{"athletes":[
	{"items":[
		{"fullName":"Josh Allen","jersey":"17","position":{"displayName":"Quarterback","abbreviation":"QB"},"experience":{"years":7}},
		{"fullName":"James Cook","jersey":"4","position":{"abbreviation":"RB"},"experience":{"years":3}}
	]}
]}`

const billsTeam = `{"team":{
	"displayName":"Buffalo Bills","abbreviation":"BUF",
	"record":{"items":[{"summary":"13-4"}]},
	"leaders":[
		{"displayName":"Passing Yards","leaders":[{"athlete":{"fullName":"Josh Allen","displayName":"Josh Allen"},"displayValue":"3,731 YDS"}]},
		{"displayName":"Rushing Yards","leaders":[{"athlete":{"fullName":"James Cook","displayName":"James Cook"},"displayValue":"1,009 YDS"}]}
	]
}}`

const chiefsTeam = `{"team":{
	"displayName":"Kansas City Chiefs","abbreviation":"KC",
	"record":{"items":[{"summary":"15-2"}]},
	"leaders":[
		{"displayName":"Passing Yards","leaders":[{"athlete":{"displayName":"Patrick Mahomes"},"displayValue":"3,928 YDS"}]}
	]
}}`

const billsStats = `{"results":{"stats":{"categories":[
	{"name":"scoring","stats":[{"name":"avgPoints","displayValue":"30.9"}]},
	{"name":"passing","stats":[{"name":"netYards","value":380.5},{"name":"netPassingYards","displayValue":"225.4"}]},
	{"name":"rushing","stats":[{"name":"rushingYards","displayValue":"2,548"}]},
	{"name":"general","stats":[{"name":"turnovers","displayValue":"8"}]}
]}}}`

const scoreboard = `{"events":[
	{"name":"Houston Texans at Pittsburgh Steelers","date":"2026-01-12T01:15Z","competitions":[{
		"competitors":[
			{"homeAway":"home","team":{"displayName":"Pittsburgh Steelers","abbreviation":"PIT"},"records":[{"summary":"10-7"}],"leaders":[]},
			{"homeAway":"away","team":{"displayName":"Houston Texans","abbreviation":"HOU"},"records":[{"summary":"10-7"}],"leaders":[]}
		],
		"status":{"type":{"detail":"Sun, January 11th at 8:15 PM EST"}},
		"broadcasts":[{"names":["NBC"]}]
	}]},
	{"name":"Kansas City Chiefs at Buffalo Bills","date":"2026-01-18T23:30Z","competitions":[{
		"competitors":[
			{"homeAway":"home","team":{"displayName":"Buffalo Bills","abbreviation":"BUF"},"records":[{"summary":"13-4"}],
			 "leaders":[{"displayName":"Passing Leader","leaders":[{"athlete":{"displayName":"Josh Allen"},"displayValue":"3,731 YDS"}]}]},
			{"homeAway":"away","team":{"displayName":"Kansas City Chiefs","abbreviation":"KC"},"records":[{"summary":"15-2"}],"leaders":[]}
		],
		"odds":[{"details":"BUF -1.5","overUnder":47.5,"awayTeamOdds":{"favorite":false}}],
		"status":{"type":{"detail":"Sun, January 18th at 6:30 PM EST"}},
		"broadcasts":[{"names":["CBS","Paramount+"]}]
	}]}
]}`

type fakeUpstream struct {
	server *httptest.Server
	hits   atomic.Int64
	routes map[string]string
}

func newFakeUpstream(routes map[string]string) *fakeUpstream {
	f := &fakeUpstream{routes: routes}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		body, ok := f.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	return f
}

func newFetcher(ttl time.Duration) *adapters.Fetcher {
	f, err := adapters.NewFetcher(adapters.FetcherConfig{
		Timeout:  2 * time.Second,
		CacheTTL: ttl,
		Logger:   logger.Nop(),
	})
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(f.Close)
	return f
}

var _ = Describe("ESPN adapters", func() {
	var (
		ctx      context.Context
		upstream *fakeUpstream
		espn     *adapters.ESPN
	)

	BeforeEach(func() {
		ctx = context.Background()
		upstream = newFakeUpstream(map[string]string{
			"/nfl/teams/buf/roster":     billsRoster,
			"/nfl/teams/buf":            billsTeam,
			"/nfl/teams/kc":             chiefsTeam,
			"/nfl/teams/buf/statistics": billsStats,
			"/nfl/scoreboard":           scoreboard,
		})
		DeferCleanup(upstream.server.Close)
		espn = adapters.NewESPN(upstream.server.URL+"/nfl", newFetcher(0))
	})

	Describe("espn_player_stats", func() {
		It("reports the player with their leader categories", func() {
			out, err := adapters.NewPlayerStats(espn).Call(ctx, map[string]any{
				"playerName": "josh allen",
				"teamAbbr":   "BUF",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("Player: Josh Allen\n" +
				"Team: Buffalo Bills\n" +
				"Position: Quarterback\n" +
				"Jersey: #17\n" +
				"Experience: 7 years\n" +
				"\nSeason Stats:\nPassing Yards: 3,731 YDS\n"))
		})

		It("scans the playoff teams when no team is given", func() {
			out, err := adapters.NewPlayerStats(espn).Call(ctx, map[string]any{"playerName": "Cook"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Player: James Cook"))
			Expect(out).To(ContainSubstring("Position: RB"))
			Expect(out).To(ContainSubstring("Rushing Yards: 1,009 YDS"))
		})

		It("reports a player who is not on any roster", func() {
			out, err := adapters.NewPlayerStats(espn).Call(ctx, map[string]any{"playerName": "Nobody"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(`Could not find player "Nobody" in the NFL roster data.`))
		})

		It("requires a player name", func() {
			_, err := adapters.NewPlayerStats(espn).Call(ctx, map[string]any{})
			Expect(errors.Is(err, adapters.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("espn_matchup", func() {
		It("finds a game by both team names", func() {
			out, err := adapters.NewMatchup(espn).Call(ctx, map[string]any{"team1": "Chiefs", "team2": "bills"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("🏈 Kansas City Chiefs at Buffalo Bills\n📅 Sun, January 18th at 6:30 PM EST\n📺 CBS, Paramount+\n"))
			Expect(out).To(ContainSubstring("HOME: Buffalo Bills (13-4)"))
			Expect(out).To(ContainSubstring("  Passing Leader: Josh Allen - 3,731 YDS"))
			Expect(out).To(ContainSubstring("AWAY: Kansas City Chiefs (15-2)"))
			Expect(out).To(ContainSubstring("💰 ODDS:\n  Spread: BUF -1.5\n  Over/Under: 47.5\n  Favorite: Buffalo Bills"))
		})

		It("matches a single team by abbreviation", func() {
			out, err := adapters.NewMatchup(espn).Call(ctx, map[string]any{"team1": "HOU"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("🏈 Houston Texans at Pittsburgh Steelers"))
			Expect(out).NotTo(ContainSubstring("ODDS"))
		})

		It("reports when no game matches", func() {
			out, err := adapters.NewMatchup(espn).Call(ctx, map[string]any{"team1": "Jets", "team2": "Giants"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(`No upcoming matchup found for "Jets" vs "Giants".`))
		})

		It("turns an unreachable scoreboard into text", func() {
			broken := adapters.NewESPN(upstream.server.URL+"/missing", newFetcher(0))
			out, err := adapters.NewMatchup(broken).Call(ctx, map[string]any{"team1": "Bills"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("ESPN scoreboard is unavailable"))
		})
	})

	Describe("team_comparison", func() {
		It("lays out both teams with missing data as N/A", func() {
			out, err := adapters.NewTeamComparison(espn).Call(ctx, map[string]any{"team1": "buf", "team2": "kc"})
			Expect(err).NotTo(HaveOccurred())

			Expect(out).To(HavePrefix("📊 HEAD-TO-HEAD COMPARISON\n\nBuffalo Bills (13-4) vs Kansas City Chiefs (15-2)\n\n"))
			Expect(out).To(ContainSubstring("Points Per Game:\n  Buffalo Bills: 30.9\n  Kansas City Chiefs: N/A\n"))
			Expect(out).To(ContainSubstring("Total Yards/Game:\n  Buffalo Bills: 380.5\n"))
			Expect(out).To(ContainSubstring("Passing Yards/Game:\n  Buffalo Bills: 225.4\n"))
			Expect(out).To(ContainSubstring("Turnovers:\n  Buffalo Bills: 8\n"))
			Expect(out).To(ContainSubstring("KEY PLAYERS:\n\nBuffalo Bills:\n  Passing Yards: Josh Allen (3,731 YDS)\n"))
			Expect(out).To(ContainSubstring("Kansas City Chiefs:\n  Passing Yards: Patrick Mahomes (3,928 YDS)\n"))
		})

		It("names unknown teams", func() {
			out, err := adapters.NewTeamComparison(espn).Call(ctx, map[string]any{"team1": "xxx", "team2": "yyy"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Unknown (N/A) vs Unknown (N/A)"))
		})

		It("requires both teams", func() {
			_, err := adapters.NewTeamComparison(espn).Call(ctx, map[string]any{"team1": "buf"})
			Expect(errors.Is(err, adapters.ErrInvalidInput)).To(BeTrue())
		})
	})
})

var _ = Describe("Fetcher", func() {
	It("serves repeated requests from the cache", func() {
		upstream := newFakeUpstream(map[string]string{"/doc": `{"ok":true}`})
		DeferCleanup(upstream.server.Close)
		fetcher := newFetcher(time.Minute)

		for range 3 {
			var out map[string]bool
			Expect(fetcher.GetJSON(context.Background(), upstream.server.URL+"/doc", &out)).To(Succeed())
			Expect(out["ok"]).To(BeTrue())
		}
		Expect(upstream.hits.Load()).To(Equal(int64(1)))
	})

	It("does not cache when the TTL is zero", func() {
		upstream := newFakeUpstream(map[string]string{"/doc": `{"ok":true}`})
		DeferCleanup(upstream.server.Close)
		fetcher := newFetcher(0)

		for range 2 {
			var out map[string]bool
			Expect(fetcher.GetJSON(context.Background(), upstream.server.URL+"/doc", &out)).To(Succeed())
		}
		Expect(upstream.hits.Load()).To(Equal(int64(2)))
	})

	It("wraps non-success statuses", func() {
		upstream := newFakeUpstream(nil)
		DeferCleanup(upstream.server.Close)

		var out map[string]any
		err := newFetcher(0).GetJSON(context.Background(), upstream.server.URL+"/gone", &out)
		Expect(errors.Is(err, adapters.ErrUpstream)).To(BeTrue())
	})
})
