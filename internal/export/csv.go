package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the header row of the CSV export.
var CSVHeader = []string{
	"Anonymous ID",
	"First Name",
	"Last Name",
	"Email",
	"Phone",
	"Major",
	"Graduation Year",
	"Gender",
	"Spanish Fluent",
	"Can Attend Camp",
	"Written Q1 Avg",
	"Written Q2 Avg",
	"Written Q3 Avg",
	"Written Q4 Avg",
	"Written Q5 Avg",
	"Written Avg",
	"Interview S1 Avg",
	"Interview S1.1 Avg",
	"Interview S1.2 Avg",
	"Interview S2 Avg",
	"Interview S2.1 Avg",
	"Interview S2.2 Avg",
	"Interview Avg",
	"Total Score",
	"Status",
	"Decision",
}

// WriteCSV writes the header row and one line per export row.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(csvRecord(row)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", row.AnonymousID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

func csvRecord(row Row) []string {
	rec := make([]string, 0, len(CSVHeader))
	rec = append(rec,
		row.AnonymousID,
		row.FirstName,
		row.LastName,
		row.Email,
		row.PhoneNumber,
		row.Major,
		gradYear(row.GraduationYear),
		row.Gender,
		yesNo(row.SpanishFluent),
		yesNo(row.CanAttendCamp),
	)
	for _, avg := range row.QuestionAvgs {
		rec = append(rec, fixed2(avg))
	}
	rec = append(rec, fixed2(row.WrittenAvg))
	for r := range row.RoundAvgs {
		rec = append(rec, fixed2(row.RoundAvgs[r]))
		for _, avg := range row.SubSectionAvgs[r] {
			rec = append(rec, fixed2(avg))
		}
	}
	decision := ""
	if row.Decision != nil {
		decision = string(*row.Decision)
	}
	rec = append(rec,
		fixed2(row.InterviewAvg),
		fixed2(row.TotalScore),
		string(row.Status),
		decision,
	)
	return rec
}

func fixed2(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func gradYear(y int) string {
	if y == 0 {
		return ""
	}
	return strconv.Itoa(y)
}
