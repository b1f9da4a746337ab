package schedule

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/domain"
)

func teamList(n int) []domain.Team {
	out := make([]domain.Team, n)
	for i := range out {
		out[i] = domain.Team{ID: fmt.Sprintf("t%d", i+1), Name: fmt.Sprintf("Team %d", i+1), DivisionID: "d1"}
	}
	return out
}

func pairKey(m Matchup) string {
	a, b := m.HomeTeam.ID, m.AwayTeam.ID
	if a > b {
		a, b = b, a
	}
	return a + "/" + b
}

func TestRoundRobinEvenCount(t *testing.T) {
	ms, err := BuildMatchups(teamList(4), "d1", RoundRobin)
	require.NoError(t, err)
	assert.Len(t, ms, 6) // n(n-1)/2

	seen := make(map[string]int)
	for _, m := range ms {
		assert.NotEqual(t, m.HomeTeam.ID, m.AwayTeam.ID)
		seen[pairKey(m)]++
	}
	assert.Len(t, seen, 6)
	for pair, count := range seen {
		assert.Equal(t, 1, count, "pair %s repeated", pair)
	}
}

func TestRoundRobinOddCountDropsByes(t *testing.T) {
	ms, err := BuildMatchups(teamList(5), "d1", RoundRobin)
	require.NoError(t, err)
	assert.Len(t, ms, 10)
	for _, m := range ms {
		assert.NotEqual(t, byeTeamID, m.HomeTeam.ID)
		assert.NotEqual(t, byeTeamID, m.AwayTeam.ID)
	}
}

func TestDoubleRoundRobinSwapsHosting(t *testing.T) {
	ms, err := BuildMatchups(teamList(4), "d1", DoubleRoundRobin)
	require.NoError(t, err)
	assert.Len(t, ms, 12)

	// Every ordered (home, away) pairing appears exactly once.
	ordered := make(map[string]int)
	for _, m := range ms {
		ordered[m.HomeTeam.ID+">"+m.AwayTeam.ID]++
	}
	assert.Len(t, ordered, 12)
}

func TestTournamentBracketSeeding(t *testing.T) {
	ms, err := BuildMatchups(teamList(6), "d1", Tournament)
	require.NoError(t, err)

	// Field of 8: seeds 1 and 2 draw byes, leaving 3v6 and 4v5.
	require.Len(t, ms, 2)
	assert.Equal(t, "t3", ms[0].HomeTeam.ID)
	assert.Equal(t, "t6", ms[0].AwayTeam.ID)
	assert.Equal(t, "t4", ms[1].HomeTeam.ID)
	assert.Equal(t, "t5", ms[1].AwayTeam.ID)
	for _, m := range ms {
		assert.Equal(t, domain.GamePlayoff, m.GameType)
	}
}

func TestBuildMatchupsRejectsSingleTeam(t *testing.T) {
	_, err := BuildMatchups(teamList(1), "d1", RoundRobin)
	assert.Error(t, err)
}

func TestParseAlgorithmDefaultsToRoundRobin(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, RoundRobin, alg)

	_, err = ParseAlgorithm("SWISS")
	assert.Error(t, err)
}

func TestPrioritizeIsDeterministicPerSeason(t *testing.T) {
	ms, err := BuildMatchups(teamList(6), "d1", RoundRobin)
	require.NoError(t, err)

	a := prioritize(append([]Matchup(nil), ms...), "season-1")
	b := prioritize(append([]Matchup(nil), ms...), "season-1")
	assert.Equal(t, a, b)

	// Rounds stay in ascending order after the shuffle.
	lastRound := 0
	for _, m := range a {
		assert.GreaterOrEqual(t, m.Round, lastRound)
		lastRound = m.Round
	}
}
