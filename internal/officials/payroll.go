package officials

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

// PayrollRow is one priced assignment line in a payroll export.
type PayrollRow struct {
	OfficialID   string
	OfficialName string
	GameDate     time.Time
	GameNumber   string
	Role         domain.OfficialRole
	Hours        float64
	HourlyRate   float64
	TotalPay     float64
	Status       domain.AssignmentStatus
}

// BuildPayroll joins assignments to their games and prices the work done in
// [from, to]. Only assignments on COMPLETED games within the window count;
// declined and cancelled assignments never pay. Actual pay, when recorded,
// overrides the estimate.
func BuildPayroll(assignments []domain.Assignment, games map[string]domain.Game, from, to time.Time, loc *time.Location) []PayrollRow {
	if loc == nil {
		loc = time.UTC
	}
	var rows []PayrollRow
	for _, a := range assignments {
		if a.Status == domain.AssignmentDeclined || a.Status == domain.AssignmentCancelled {
			continue
		}
		g, ok := games[a.GameID]
		if !ok || g.Status != domain.GameCompleted {
			continue
		}
		if g.ScheduledStart.Before(from) || g.ScheduledStart.After(to) {
			continue
		}
		hours := float64(g.DurationMinutes) / 60.0
		pay := a.EstimatedPay
		if a.ActualPay != nil {
			pay = *a.ActualPay
		}
		rows = append(rows, PayrollRow{
			OfficialID:   a.OfficialID,
			OfficialName: a.OfficialName,
			GameDate:     g.ScheduledStart.In(loc),
			GameNumber:   g.GameNumber,
			Role:         a.Role,
			Hours:        hours,
			HourlyRate:   a.PayRate,
			TotalPay:     pay,
			Status:       a.Status,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].OfficialName != rows[j].OfficialName {
			return rows[i].OfficialName < rows[j].OfficialName
		}
		return rows[i].GameDate.Before(rows[j].GameDate)
	})
	return rows
}

// WritePayrollCSV streams rows as CSV with a fixed header.
func WritePayrollCSV(w io.Writer, rows []PayrollRow) error {
	cw := csv.NewWriter(w)
	header := []string{
		"official_id", "official_name", "game_date", "game_number",
		"role", "hours", "hourly_rate", "total_pay", "status",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write payroll header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.OfficialID,
			r.OfficialName,
			r.GameDate.Format("2006-01-02"),
			r.GameNumber,
			string(r.Role),
			strconv.FormatFloat(r.Hours, 'f', 2, 64),
			strconv.FormatFloat(r.HourlyRate, 'f', 2, 64),
			strconv.FormatFloat(r.TotalPay, 'f', 2, 64),
			string(r.Status),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write payroll row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
