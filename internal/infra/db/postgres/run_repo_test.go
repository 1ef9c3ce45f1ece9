package postgres

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/ParadiseToken/solhydra/internal/domain/runs"
)

// row feeds fixed column values to scanRecord.
type row struct {
	values []any
	err    error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, v := range r.values {
		target := reflect.ValueOf(dest[i]).Elem()
		target.Set(reflect.ValueOf(v).Convert(target.Type()))
	}
	return nil
}

func TestScanRecord(t *testing.T) {
	started := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	finished := started.Add(3 * time.Second)

	tests := []struct {
		name      string
		finished  sql.NullTime
		tools     pq.StringArray
		wantDone  bool
		wantTools []string
	}{
		{"running", sql.NullTime{}, pq.StringArray{"solhint"}, false, []string{"solhint"}},
		{"finished", sql.NullTime{Time: finished, Valid: true}, pq.StringArray{"solhint", "mythril"}, true, []string{"solhint", "mythril"}},
		{"no tools", sql.NullTime{}, pq.StringArray{}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := scanRecord(row{values: []any{
				"run-1", started, tt.finished, "/src", tt.tools, "success", 2,
				"/r.html", "", int64(3000), "",
			}})
			if err != nil {
				t.Fatalf("scanRecord: %v", err)
			}
			if rec.ID != "run-1" || rec.Status != runs.StatusSuccess || rec.Contracts != 2 || rec.DurationMS != 3000 {
				t.Errorf("record: %+v", rec)
			}
			if (rec.FinishedAt != nil) != tt.wantDone {
				t.Errorf("finished at: %v", rec.FinishedAt)
			}
			if tt.wantDone && !rec.FinishedAt.Equal(finished) {
				t.Errorf("finished at = %v, want %v", rec.FinishedAt, finished)
			}
			if !reflect.DeepEqual(rec.Tools, tt.wantTools) {
				t.Errorf("tools = %#v, want %#v", rec.Tools, tt.wantTools)
			}
		})
	}
}

func TestScanRecordError(t *testing.T) {
	if _, err := scanRecord(row{err: sql.ErrNoRows}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("got %v", err)
	}
}

func TestHelpers(t *testing.T) {
	if nullTime(nil).Valid {
		t.Error("nil should be NULL")
	}
	now := time.Now()
	if nt := nullTime(&now); !nt.Valid || !nt.Time.Equal(now) {
		t.Error("time lost")
	}
	for in, want := range map[string]string{"": "-", " \t": "-", "/src": "/src"} {
		if got := sourceOrDash(in); got != want {
			t.Errorf("sourceOrDash(%q) = %q", in, got)
		}
	}
}
