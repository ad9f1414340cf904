package adapters

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// PlayoffTeams are scanned, in order, when a player lookup names no team.
var PlayoffTeams = []string{
	"sf", "phi", "lar", "car", "chi", "gb", "sea",
	"buf", "jax", "pit", "hou", "ne", "lac", "den",
}

// ESPN reads the public ESPN site API.
type ESPN struct {
	baseURL string
	fetcher *Fetcher
	teams   []string
}

// NewESPN creates an ESPN client rooted at baseURL, e.g.
// https://site.api.espn.com/apis/site/v2/sports/football/nfl.
func NewESPN(baseURL string, fetcher *Fetcher) *ESPN {
	return &ESPN{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		teams:   PlayoffTeams,
	}
}

func (e *ESPN) teamURL(abbr string, suffix ...string) string {
	u := e.baseURL + "/teams/" + url.PathEscape(strings.ToLower(abbr))
	for _, s := range suffix {
		u += "/" + s
	}
	return u
}

func (e *ESPN) roster(ctx context.Context, abbr string) (*espnRoster, error) {
	var r espnRoster
	if err := e.fetcher.GetJSON(ctx, e.teamURL(abbr, "roster"), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (e *ESPN) team(ctx context.Context, abbr string) (*espnTeamInfo, error) {
	var t espnTeamInfo
	if err := e.fetcher.GetJSON(ctx, e.teamURL(abbr), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (e *ESPN) statistics(ctx context.Context, abbr string) (*espnTeamStats, error) {
	var s espnTeamStats
	if err := e.fetcher.GetJSON(ctx, e.teamURL(abbr, "statistics"), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (e *ESPN) scoreboard(ctx context.Context) (*espnScoreboard, error) {
	var s espnScoreboard
	if err := e.fetcher.GetJSON(ctx, e.baseURL+"/scoreboard", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// PlayerStatsName is the ESPN player lookup tool.
const PlayerStatsName = "espn_player_stats"

// PlayerStats finds a player on a roster and reports the team leader
// categories they appear in.
type PlayerStats struct {
	espn *ESPN
}

// NewPlayerStats creates the player lookup tool.
func NewPlayerStats(espn *ESPN) *PlayerStats {
	return &PlayerStats{espn: espn}
}

func (t *PlayerStats) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        PlayerStatsName,
		Description: "Get current season stats for a specific NFL player from ESPN.",
		Properties: map[string]any{
			"playerName": map[string]any{
				"type":        "string",
				"description": "The player name to search for",
			},
			"teamAbbr": map[string]any{
				"type":        "string",
				"description": "Team abbreviation to narrow search",
			},
		},
		Required: []string{"playerName"},
	}
}

func (t *PlayerStats) Call(ctx context.Context, input map[string]any) (string, error) {
	playerName, err := stringArg(input, "playerName", true)
	if err != nil {
		return "", err
	}
	teamAbbr, err := stringArg(input, "teamAbbr", false)
	if err != nil {
		return "", err
	}

	teams := t.espn.teams
	if teamAbbr != "" {
		teams = []string{teamAbbr}
	}
	needle := strings.ToLower(playerName)

	for _, abbr := range teams {
		roster, err := t.espn.roster(ctx, abbr)
		if err != nil {
			// Unreachable rosters are skipped like empty ones.
			continue
		}

		for _, group := range roster.Athletes {
			for _, athlete := range group.Items {
				name := athlete.FullName
				if name == "" {
					name = athlete.DisplayName
				}
				if !strings.Contains(strings.ToLower(name), needle) {
					continue
				}

				info, _ := t.espn.team(ctx, abbr)
				return formatPlayer(name, abbr, needle, athlete, info), nil
			}
		}
	}

	return fmt.Sprintf("Could not find player %q in the NFL roster data.", playerName), nil
}

func formatPlayer(name, abbr, needle string, athlete espnAthlete, info *espnTeamInfo) string {
	teamName := strings.ToUpper(abbr)
	var stats strings.Builder
	if info != nil {
		if info.Team.DisplayName != "" {
			teamName = info.Team.DisplayName
		}
		for _, cat := range info.Team.Leaders {
			for _, leader := range cat.Leaders {
				if strings.Contains(strings.ToLower(leader.Athlete.FullName), needle) {
					fmt.Fprintf(&stats, "%s: %s\n", cat.DisplayName, leader.DisplayValue)
				}
			}
		}
	}

	position := firstNonEmpty(athlete.Position.DisplayName, athlete.Position.Abbreviation, "N/A")
	jersey := firstNonEmpty(athlete.Jersey, "N/A")

	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\n", name)
	fmt.Fprintf(&b, "Team: %s\n", teamName)
	fmt.Fprintf(&b, "Position: %s\n", position)
	fmt.Fprintf(&b, "Jersey: #%s\n", jersey)
	fmt.Fprintf(&b, "Experience: %d years\n", athlete.Experience.Years)
	if stats.Len() > 0 {
		b.WriteString("\nSeason Stats:\n" + stats.String())
	} else {
		b.WriteString("\nNo season leader stats available.")
	}
	return b.String()
}

// MatchupName is the ESPN scoreboard lookup tool.
const MatchupName = "espn_matchup"

// Matchup finds the current scoreboard game involving the given team(s).
type Matchup struct {
	espn *ESPN
}

// NewMatchup creates the scoreboard lookup tool.
func NewMatchup(espn *ESPN) *Matchup {
	return &Matchup{espn: espn}
}

func (t *Matchup) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        MatchupName,
		Description: "Get current matchup information including odds, team records, and key players from ESPN.",
		Properties: map[string]any{
			"team1": map[string]any{
				"type":        "string",
				"description": "First team name or abbreviation",
			},
			"team2": map[string]any{
				"type":        "string",
				"description": "Second team name or abbreviation",
			},
		},
		Required: []string{"team1"},
	}
}

var nonLetters = regexp.MustCompile(`[^a-z]`)

func normalizeTeam(s string) string {
	return nonLetters.ReplaceAllString(strings.ToLower(s), "")
}

func competitorMatches(c espnCompetitor, query string) bool {
	abbr := strings.ToLower(c.Team.Abbreviation)
	normalized := normalizeTeam(c.Team.DisplayName) + normalizeTeam(c.Team.Abbreviation)
	if query != "" && strings.Contains(normalized, query) {
		return true
	}
	return abbr != "" && strings.Contains(query, abbr)
}

func (t *Matchup) Call(ctx context.Context, input map[string]any) (string, error) {
	team1, err := stringArg(input, "team1", true)
	if err != nil {
		return "", err
	}
	team2, err := stringArg(input, "team2", false)
	if err != nil {
		return "", err
	}

	board, err := t.espn.scoreboard(ctx)
	if err != nil {
		return fmt.Sprintf("ESPN scoreboard is unavailable: %v", err), nil
	}

	t1 := normalizeTeam(team1)
	t2 := normalizeTeam(team2)

	for _, event := range board.Events {
		if len(event.Competitions) == 0 {
			continue
		}
		comp := event.Competitions[0]

		matches1, matches2 := false, team2 == ""
		for _, c := range comp.Competitors {
			matches1 = matches1 || competitorMatches(c, t1)
			if team2 != "" {
				matches2 = matches2 || competitorMatches(c, t2)
			}
		}
		if matches1 && matches2 {
			return formatMatchup(event, comp), nil
		}
	}

	if team2 != "" {
		return fmt.Sprintf("No upcoming matchup found for %q vs %q.", team1, team2), nil
	}
	return fmt.Sprintf("No upcoming matchup found for %q.", team1), nil
}

func formatMatchup(event espnEvent, comp espnCompetition) string {
	var home, away espnCompetitor
	for _, c := range comp.Competitors {
		switch c.HomeAway {
		case "home":
			home = c
		case "away":
			away = c
		}
	}

	broadcast := "TBD"
	if len(comp.Broadcasts) > 0 && len(comp.Broadcasts[0].Names) > 0 {
		broadcast = strings.Join(comp.Broadcasts[0].Names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏈 %s\n", event.Name)
	fmt.Fprintf(&b, "📅 %s\n", firstNonEmpty(comp.Status.Type.Detail, event.Date))
	fmt.Fprintf(&b, "📺 %s\n\n", broadcast)

	writeSide := func(label string, c espnCompetitor) {
		record := "N/A"
		if len(c.Records) > 0 && c.Records[0].Summary != "" {
			record = c.Records[0].Summary
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", label, c.Team.DisplayName, record)
		for _, cat := range c.Leaders {
			if len(cat.Leaders) == 0 {
				continue
			}
			l := cat.Leaders[0]
			fmt.Fprintf(&b, "  %s: %s - %s\n", cat.DisplayName, l.Athlete.DisplayName, l.DisplayValue)
		}
	}
	writeSide("HOME", home)
	b.WriteString("\n")
	writeSide("AWAY", away)

	if len(comp.Odds) > 0 {
		odds := comp.Odds[0]
		favorite := home.Team.DisplayName
		if odds.AwayTeamOdds.Favorite {
			favorite = away.Team.DisplayName
		}
		b.WriteString("\n💰 ODDS:\n")
		fmt.Fprintf(&b, "  Spread: %s\n", odds.Details)
		fmt.Fprintf(&b, "  Over/Under: %v\n", odds.OverUnder)
		fmt.Fprintf(&b, "  Favorite: %s\n", favorite)
	}

	return b.String()
}

// TeamComparisonName is the side-by-side team statistics tool.
const TeamComparisonName = "team_comparison"

// TeamComparison reports key statistics and leaders for two teams.
type TeamComparison struct {
	espn *ESPN
}

// NewTeamComparison creates the team comparison tool.
func NewTeamComparison(espn *ESPN) *TeamComparison {
	return &TeamComparison{espn: espn}
}

func (t *TeamComparison) Definition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        TeamComparisonName,
		Description: "Compare two NFL teams head-to-head on key statistics.",
		Properties: map[string]any{
			"team1": map[string]any{
				"type":        "string",
				"description": "First team abbreviation",
			},
			"team2": map[string]any{
				"type":        "string",
				"description": "Second team abbreviation",
			},
		},
		Required: []string{"team1", "team2"},
	}
}

type comparisonStat struct {
	label    string
	category string
	stat     string
}

var comparisonStats = []comparisonStat{
	{"Points Per Game", "scoring", "avgPoints"},
	{"Total Yards/Game", "passing", "netYards"},
	{"Rushing Yards/Game", "rushing", "rushingYards"},
	{"Passing Yards/Game", "passing", "netPassingYards"},
	{"Turnovers", "general", "turnover"},
}

func (t *TeamComparison) Call(ctx context.Context, input map[string]any) (string, error) {
	team1, err := stringArg(input, "team1", true)
	if err != nil {
		return "", err
	}
	team2, err := stringArg(input, "team2", true)
	if err != nil {
		return "", err
	}

	var (
		stats1, stats2 *espnTeamStats
		info1, info2   *espnTeamInfo
	)

	// Missing sources render as Unknown or N/A.
	var g errgroup.Group
	g.Go(func() error { stats1, _ = t.espn.statistics(ctx, team1); return nil })
	g.Go(func() error { stats2, _ = t.espn.statistics(ctx, team2); return nil })
	g.Go(func() error { info1, _ = t.espn.team(ctx, team1); return nil })
	g.Go(func() error { info2, _ = t.espn.team(ctx, team2); return nil })
	_ = g.Wait()

	name1, name2 := info1.name(), info2.name()

	var b strings.Builder
	b.WriteString("📊 HEAD-TO-HEAD COMPARISON\n\n")
	fmt.Fprintf(&b, "%s (%s) vs %s (%s)\n\n", name1, info1.record(), name2, info2.record())

	for _, s := range comparisonStats {
		fmt.Fprintf(&b, "%s:\n  %s: %s\n  %s: %s\n\n",
			s.label,
			name1, stats1.find(s.category, s.stat),
			name2, stats2.find(s.category, s.stat),
		)
	}

	b.WriteString("KEY PLAYERS:\n")
	for _, side := range []struct {
		info *espnTeamInfo
		name string
	}{{info1, name1}, {info2, name2}} {
		fmt.Fprintf(&b, "\n%s:\n", side.name)
		if side.info == nil {
			continue
		}
		for _, cat := range side.info.Team.Leaders {
			if len(cat.Leaders) == 0 {
				continue
			}
			l := cat.Leaders[0]
			fmt.Fprintf(&b, "  %s: %s (%s)\n", cat.DisplayName, l.Athlete.DisplayName, l.DisplayValue)
		}
	}

	return b.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
