package adapters

import (
	"fmt"
	"strings"
)

type espnAthlete struct {
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName"`
	Jersey      string `json:"jersey"`
	Position    struct {
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"position"`
	Experience struct {
		Years int `json:"years"`
	} `json:"experience"`
}

type espnRoster struct {
	Athletes []struct {
		Items []espnAthlete `json:"items"`
	} `json:"athletes"`
}

type espnLeader struct {
	Athlete struct {
		FullName    string `json:"fullName"`
		DisplayName string `json:"displayName"`
	} `json:"athlete"`
	DisplayValue string `json:"displayValue"`
}

type espnLeaderCategory struct {
	DisplayName string       `json:"displayName"`
	Leaders     []espnLeader `json:"leaders"`
}

type espnTeam struct {
	DisplayName  string               `json:"displayName"`
	Abbreviation string               `json:"abbreviation"`
	Leaders      []espnLeaderCategory `json:"leaders"`
	Record       struct {
		Items []struct {
			Summary string `json:"summary"`
		} `json:"items"`
	} `json:"record"`
}

type espnTeamInfo struct {
	Team espnTeam `json:"team"`
}

func (t *espnTeamInfo) name() string {
	if t == nil || t.Team.DisplayName == "" {
		return "Unknown"
	}
	return t.Team.DisplayName
}

func (t *espnTeamInfo) record() string {
	if t == nil || len(t.Team.Record.Items) == 0 || t.Team.Record.Items[0].Summary == "" {
		return "N/A"
	}
	return t.Team.Record.Items[0].Summary
}

type espnCompetitor struct {
	Team     espnTeam `json:"team"`
	HomeAway string   `json:"homeAway"`
	Records  []struct {
		Summary string `json:"summary"`
	} `json:"records"`
	Leaders []espnLeaderCategory `json:"leaders"`
}

type espnOdds struct {
	Details      string `json:"details"`
	OverUnder    any    `json:"overUnder"`
	AwayTeamOdds struct {
		Favorite bool `json:"favorite"`
	} `json:"awayTeamOdds"`
}

type espnCompetition struct {
	Competitors []espnCompetitor `json:"competitors"`
	Odds        []espnOdds       `json:"odds"`
	Status      struct {
		Type struct {
			Detail string `json:"detail"`
		} `json:"type"`
	} `json:"status"`
	Broadcasts []struct {
		Names []string `json:"names"`
	} `json:"broadcasts"`
}

type espnEvent struct {
	Name         string            `json:"name"`
	Date         string            `json:"date"`
	Competitions []espnCompetition `json:"competitions"`
}

type espnScoreboard struct {
	Events []espnEvent `json:"events"`
}

type espnStat struct {
	Name         string `json:"name"`
	DisplayValue string `json:"displayValue"`
	Value        any    `json:"value"`
}

type espnTeamStats struct {
	Results struct {
		Stats struct {
			Categories []struct {
				Name  string     `json:"name"`
				Stats []espnStat `json:"stats"`
			} `json:"categories"`
		} `json:"stats"`
	} `json:"results"`
}

// find returns the display value of the first stat whose name contains stat
// within the first category whose name contains category.
func (s *espnTeamStats) find(category, stat string) string {
	if s == nil {
		return "N/A"
	}

	category, stat = strings.ToLower(category), strings.ToLower(stat)
	for _, cat := range s.Results.Stats.Categories {
		if !strings.Contains(strings.ToLower(cat.Name), category) {
			continue
		}
		for _, st := range cat.Stats {
			if !strings.Contains(strings.ToLower(st.Name), stat) {
				continue
			}
			if st.DisplayValue != "" {
				return st.DisplayValue
			}
			if st.Value != nil {
				return fmt.Sprint(st.Value)
			}
			return "N/A"
		}
		return "N/A"
	}
	return "N/A"
}
