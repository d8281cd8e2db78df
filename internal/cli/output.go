package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"harvester/internal/domain"
	"harvester/internal/fleet"
)

// Output печатает итоги обходов ростера: таблицей или JSON.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сводки
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Results печатает исходы операции по аккаунтам и сводку
// "n/m succeeded" в stderr.
func (o *Output) Results(results []domain.OperationResult) {
	var succeeded int
	for _, res := range results {
		if res.Status {
			succeeded++
		}
	}

	if o.jsonMode {
		o.json(results)
	} else {
		rows := make([][]string, len(results))
		for i, res := range results {
			status := "FAILED"
			if res.Status {
				status = "OK"
			}
			rows[i] = []string{res.Identifier, status}
		}
		o.table([]string{"EMAIL", "STATUS"}, rows)
	}

	fmt.Fprintf(o.errW, "%d/%d succeeded\n", succeeded, len(results))
}

// Stats печатает баллы по аккаунтам. Для неудачного снятия в числовых
// колонках стоит прочерк.
func (o *Output) Stats(reports []fleet.StatsReport) {
	if o.jsonMode {
		o.json(reports)
		return
	}

	rows := make([][]string, len(reports))
	for i, rep := range reports {
		rows[i] = statsRow(rep)
	}
	o.table([]string{"EMAIL", "STATUS", "POINTS", "REFERRAL"}, rows)
}

func statsRow(rep fleet.StatsReport) []string {
	if !rep.Data.Success {
		return []string{rep.Email, "FAILED", "-", "-"}
	}

	var points, referral float64
	if rp := rep.Data.RewardPoint; rp != nil {
		points = rp.Points + rp.RegisterPoints + rp.TwitterPoints + rp.DiscordPoints + rp.TelegramPoints
	}
	if rep.Data.ReferralPoint != nil {
		referral = rep.Data.ReferralPoint.Commission
	}
	return []string{
		rep.Email,
		"OK",
		strconv.FormatFloat(points, 'f', 2, 64),
		strconv.FormatFloat(referral, 'f', 2, 64),
	}
}

func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

func (o *Output) json(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
