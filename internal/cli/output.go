package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shaiso/ghreport/internal/domain"
	"github.com/shaiso/ghreport/internal/github"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Run выводит итог одного run: шаги и их результат.
func (o *Output) Run(run *domain.Run) {
	if o.jsonMode {
		o.json(run)
		return
	}

	fmt.Fprintf(o.w, "run %s  day %s  %s  (%s)\n\n", run.ID, run.Day, run.Status, run.Duration().Round(time.Second))

	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		rows[i] = []string{s.Name, string(s.Status), s.Duration.Round(time.Millisecond).String(), s.Message}
	}
	o.table([]string{"STEP", "STATUS", "DURATION", "MESSAGE"}, rows)

	if run.ReportPath != "" {
		fmt.Fprintf(o.w, "\nreport: %s\n", run.ReportPath)
	}
	if run.Warnings != "" {
		fmt.Fprintf(o.errW, "\nwarnings:\n%s\n", run.Warnings)
	}
}

// Runs выводит список runs.
func (o *Output) Runs(runs []domain.Run) {
	if o.jsonMode {
		o.json(runs)
		return
	}

	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID.String(),
			r.Day,
			r.Trigger,
			string(r.Status),
			r.Duration().Round(time.Second).String(),
			r.CreatedAt.Format(time.RFC3339),
		}
	}
	o.table([]string{"ID", "DAY", "TRIGGER", "STATUS", "DURATION", "CREATED"}, rows)
}

// Summary выводит количество записей по batches.
func (o *Output) Summary(summary github.Summary) {
	if o.jsonMode {
		o.json(summary)
		return
	}

	rows := make([][]string, 0, len(domain.FetchedBatches))
	for _, b := range domain.FetchedBatches {
		rows = append(rows, []string{string(b.Kind), strconv.Itoa(summary[b.Kind])})
	}
	o.table([]string{"BATCH", "RECORDS"}, rows)
}

// Success выводит сообщение в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
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
