// Package schedule generates a season's game plan: matchup construction,
// slot enumeration, and the concurrent placement loop. The generator never
// persists games; publishing is a separate atomic step owned by the API
// layer.
package schedule

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/courtly/leaguecore/internal/domain"
)

// Algorithm selects the matchup scheme.
type Algorithm string

const (
	RoundRobin       Algorithm = "ROUND_ROBIN"
	DoubleRoundRobin Algorithm = "DOUBLE_ROUND_ROBIN"
	Tournament       Algorithm = "TOURNAMENT"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case RoundRobin, DoubleRoundRobin, Tournament:
		return Algorithm(s), nil
	case "":
		return RoundRobin, nil
	}
	return "", fmt.Errorf("invalid algorithm %q", s)
}

// Matchup is an ordered (home, away) pair produced before placement.
type Matchup struct {
	HomeTeam   domain.Team
	AwayTeam   domain.Team
	DivisionID string
	Round      int
	GameType   domain.GameType
}

// byePlaceholder pads odd team counts in the circle method. Matchups touching
// it are dropped.
const byeTeamID = "__BYE__"

// BuildMatchups constructs matchups for one division's teams.
func BuildMatchups(teams []domain.Team, divisionID string, alg Algorithm) ([]Matchup, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("division %s needs at least 2 teams, got %d", divisionID, len(teams))
	}
	switch alg {
	case RoundRobin:
		return roundRobin(teams, divisionID, false), nil
	case DoubleRoundRobin:
		return roundRobin(teams, divisionID, true), nil
	case Tournament:
		return bracket(teams, divisionID), nil
	}
	return nil, fmt.Errorf("invalid algorithm %q", alg)
}

// roundRobin pairs teams with the circle method: fix the first team, rotate
// the rest one step per round. Odd counts get a bye placeholder whose
// matchups are dropped. The double variant replays every round with home and
// away swapped.
func roundRobin(teams []domain.Team, divisionID string, double bool) []Matchup {
	ring := make([]domain.Team, len(teams))
	copy(ring, teams)
	if len(ring)%2 == 1 {
		ring = append(ring, domain.Team{ID: byeTeamID})
	}
	n := len(ring)
	rounds := n - 1
	half := n / 2

	var out []Matchup
	for round := 0; round < rounds; round++ {
		for i := 0; i < half; i++ {
			a, b := ring[i], ring[n-1-i]
			if a.ID == byeTeamID || b.ID == byeTeamID {
				continue
			}
			// Alternate home/away by round so hosting spreads evenly.
			home, away := a, b
			if round%2 == 1 {
				home, away = b, a
			}
			out = append(out, Matchup{
				HomeTeam: home, AwayTeam: away,
				DivisionID: divisionID, Round: round + 1,
				GameType: domain.GameRegular,
			})
		}
		// Rotate all but the first element.
		last := ring[n-1]
		copy(ring[2:], ring[1:n-1])
		ring[1] = last
	}

	if double {
		second := make([]Matchup, 0, len(out))
		for _, m := range out {
			second = append(second, Matchup{
				HomeTeam: m.AwayTeam, AwayTeam: m.HomeTeam,
				DivisionID: divisionID, Round: m.Round + rounds,
				GameType: domain.GameRegular,
			})
		}
		out = append(out, second...)
	}
	return out
}

// bracket produces the first round of a single-elimination bracket sized to
// the next power of two. Byes go to the top seeds; seed order is input order.
func bracket(teams []domain.Team, divisionID string) []Matchup {
	size := 1
	for size < len(teams) {
		size *= 2
	}

	// Standard seeding: 1 vs size, 2 vs size-1, ... Seeds beyond the field
	// are byes, which auto-advance the high seed and emit no matchup.
	var out []Matchup
	for i := 0; i < size/2; i++ {
		hi, lo := i, size-1-i
		if lo >= len(teams) {
			continue
		}
		out = append(out, Matchup{
			HomeTeam: teams[hi], AwayTeam: teams[lo],
			DivisionID: divisionID, Round: 1,
			GameType: domain.GamePlayoff,
		})
	}
	return out
}

// prioritize orders matchups round by round, interleaving divisions, with a
// deterministic per-round shuffle seeded from the season ID. Spreading rounds
// across the calendar keeps any one team from stacking early weekends.
func prioritize(matchups []Matchup, seasonID string) []Matchup {
	byRound := make(map[int][]Matchup)
	var rounds []int
	for _, m := range matchups {
		if len(byRound[m.Round]) == 0 {
			rounds = append(rounds, m.Round)
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}
	sort.Ints(rounds)

	h := fnv.New64a()
	h.Write([]byte(seasonID))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	out := make([]Matchup, 0, len(matchups))
	for _, r := range rounds {
		group := byRound[r]
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		out = append(out, group...)
	}
	return out
}
