package dataset

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/statforge/blsload/internal/pkg/distlock"
)

// newSurveyArchive serves a minimal but complete ln survey.
func newSurveyArchive(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestArchive(t, map[string]string{
		"/ln/ln.data.1.AllData": "series_id\tyear\tperiod\tvalue\n" +
			"LNS10000000\t2020\tM01\t100.5\n",
		"/ln/ln.series": "series_id\tlfst_code\tperiodicity_code\tseries_title\n" +
			"LNS10000000\t10\tM\tLabor force level\n",
		"/ln/ln.lfst": "lfst_code\tlfst_text\n10\tEmployed\n",
		"/ln/ln.periodicity": "periodicity_code\tperiodicity_text\nM\tMonthly\n",
	})
}

func newGuarded(t *testing.T, maxWait time.Duration) (*GuardedCollector, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locks := func(key string) distlock.Lock {
		return distlock.NewRedisLock(rdb, key, time.Minute)
	}
	return NewGuardedCollector(newTestCollector(t), locks, maxWait), mr
}

func TestGuardedLoad(t *testing.T) {
	srv := newSurveyArchive(t)
	g, mr := newGuarded(t, time.Second)

	got, err := g.Load(context.Background(), srv.URL, "ln")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Data.NumRows() != 1 {
		t.Errorf("rows = %d, want 1", got.Data.NumRows())
	}
	if !got.Data.HasColumn("lfst_text") || !got.Data.HasColumn("periodicity_text") {
		t.Errorf("metadata columns missing: %v", got.Data.Columns)
	}
	if mr.Exists("blsload:lock:survey:ln") {
		t.Error("survey lock should be released after the load")
	}
}

func TestGuardedLoadProceedsWhenLockHeld(t *testing.T) {
	srv := newSurveyArchive(t)
	g, mr := newGuarded(t, 0)

	// Another process holds the lock and never lets go within the wait.
	if err := mr.Set("blsload:lock:survey:ln", "someone-else"); err != nil {
		t.Fatal(err)
	}

	got, err := g.Load(context.Background(), srv.URL, "ln")
	if err != nil {
		t.Fatalf("Load should proceed without the lock: %v", err)
	}
	if got.Data.NumRows() != 1 {
		t.Errorf("rows = %d, want 1", got.Data.NumRows())
	}
	if v, _ := mr.Get("blsload:lock:survey:ln"); v != "someone-else" {
		t.Errorf("foreign lock must survive: %q", v)
	}
}
