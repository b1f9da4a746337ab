package officials

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/domain"
)

func completedGame(id, number string, start time.Time) domain.Game {
	g := scheduledGame(id, number, start, domain.GameRegular)
	g.Status = domain.GameCompleted
	return g
}

func TestBuildPayrollFiltersAndSorts(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, phoenix)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, phoenix)

	games := map[string]domain.Game{
		"g1": completedGame("g1", "G001", time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)),
		"g2": completedGame("g2", "G002", time.Date(2026, 3, 14, 9, 0, 0, 0, phoenix)),
		"g3": scheduledGame("g3", "G003", time.Date(2026, 3, 21, 9, 0, 0, 0, phoenix), domain.GameRegular),
		"g4": completedGame("g4", "G004", time.Date(2026, 5, 2, 9, 0, 0, 0, phoenix)),
	}
	actual := 45.0
	assignments := []domain.Assignment{
		// Completed, in window, actual pay recorded.
		{ID: "a1", GameID: "g1", OfficialID: "o2", OfficialName: "Ben Okafor",
			Role: domain.RoleScorekeeper, Status: domain.AssignmentConfirmed,
			PayRate: 10.8, EstimatedPay: 10.8, ActualPay: &actual},
		// Completed, in window.
		{ID: "a2", GameID: "g2", OfficialID: "o1", OfficialName: "Alice Reyes",
			Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed,
			PayRate: 30, EstimatedPay: 30},
		// Game never completed: no pay.
		{ID: "a3", GameID: "g3", OfficialID: "o1", OfficialName: "Alice Reyes",
			Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed,
			PayRate: 30, EstimatedPay: 30},
		// Completed but outside the window.
		{ID: "a4", GameID: "g4", OfficialID: "o1", OfficialName: "Alice Reyes",
			Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed,
			PayRate: 30, EstimatedPay: 30},
		// Declined assignments never pay.
		{ID: "a5", GameID: "g1", OfficialID: "o1", OfficialName: "Alice Reyes",
			Role: domain.RoleHeadReferee, Status: domain.AssignmentDeclined,
			PayRate: 30, EstimatedPay: 30},
	}

	rows := BuildPayroll(assignments, games, from, to, phoenix)
	require.Len(t, rows, 2)

	// Sorted by official name.
	assert.Equal(t, "Alice Reyes", rows[0].OfficialName)
	assert.Equal(t, 30.0, rows[0].TotalPay)
	assert.Equal(t, "Ben Okafor", rows[1].OfficialName)
	// Recorded actual pay overrides the estimate.
	assert.Equal(t, 45.0, rows[1].TotalPay)
	assert.Equal(t, 1.0, rows[1].Hours)
}

func TestWritePayrollCSV(t *testing.T) {
	rows := []PayrollRow{{
		OfficialID:   "o1",
		OfficialName: "Alice Reyes",
		GameDate:     time.Date(2026, 3, 14, 9, 0, 0, 0, phoenix),
		GameNumber:   "G002",
		Role:         domain.RoleHeadReferee,
		Hours:        1,
		HourlyRate:   30,
		TotalPay:     30,
		Status:       domain.AssignmentConfirmed,
	}}

	var buf bytes.Buffer
	require.NoError(t, WritePayrollCSV(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "official_id,official_name,game_date,game_number,role,hours,hourly_rate,total_pay,status", lines[0])
	assert.Equal(t, "o1,Alice Reyes,2026-03-14,G002,HEAD_REFEREE,1.00,30.00,30.00,CONFIRMED", lines[1])
}

func TestWritePayrollCSVEmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePayrollCSV(&buf, nil))
	assert.Equal(t, "official_id,official_name,game_date,game_number,role,hours,hourly_rate,total_pay,status",
		strings.TrimSpace(buf.String()))
}
