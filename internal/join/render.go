package join

import "time"

// Sink receives a finished table: header, then rows aligned to it, then a footer.
type Sink interface {
	Header(columns []string) error
	Row(values []string) error
	Footer(s Summary) error
}

// Summary is the footer of a rendered result.
type Summary struct {
	Rows     int
	Elapsed  time.Duration
	Strategy Strategy
}

// Render writes a result to a sink. Empty results are the caller's to report;
// Render writes nothing for them.
func Render(sink Sink, res *Result) error {
	if res.Empty {
		return nil
	}
	if err := sink.Header(res.Header); err != nil {
		return err
	}
	for _, row := range res.Rows {
		if err := sink.Row(Values(res.Header, row)); err != nil {
			return err
		}
	}
	return sink.Footer(Summary{
		Rows:     len(res.Rows),
		Elapsed:  res.Timings.Total,
		Strategy: res.Plan.Strategy,
	})
}
