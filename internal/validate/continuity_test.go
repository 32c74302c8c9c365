package validate

import (
	"testing"

	"statarchive/internal/manifest"
)

func quarterly(values ...string) *manifest.DataPackage {
	dp := &manifest.DataPackage{Name: "test", Version: "2026.01.01"}
	for _, v := range values {
		dp.Resources = append(dp.Resources, manifest.Resource{
			Name:  v + ".zip",
			Bytes: 1,
			Parts: manifest.Partitions{"year_quarter": {v}},
		})
	}
	return dp
}

func monthly(values ...string) *manifest.DataPackage {
	dp := &manifest.DataPackage{Name: "test", Version: "2026.01.01"}
	for _, v := range values {
		dp.Resources = append(dp.Resources, manifest.Resource{
			Name:  v + ".csv",
			Bytes: 1,
			Parts: manifest.Partitions{"year_month": {v}},
		})
	}
	return dp
}

// fullQuarterRange enumerates every quarter from 1995q1 through 1997q2.
func fullQuarterRange() []string {
	return []string{
		"1995q1", "1995q2", "1995q3", "1995q4",
		"1996q1", "1996q2", "1996q3", "1996q4",
		"1997q1", "1997q2",
	}
}

func TestCheckDataContinuityQuarterly(t *testing.T) {
	t.Run("complete range passes", func(t *testing.T) {
		got := CheckDataContinuity(quarterly(fullQuarterRange()...), true)
		if !got.Success {
			t.Fatalf("continuity failed: %v", got.Notes)
		}
	})

	t.Run("missing trailing quarter fails", func(t *testing.T) {
		var values []string
		for _, v := range fullQuarterRange() {
			if v != "1997q1" {
				values = append(values, v)
			}
		}
		got := CheckDataContinuity(quarterly(values...), true)
		if got.Success {
			t.Fatal("continuity passed despite a gap")
		}
		if !notesContain(got.Notes, "1997q1") {
			t.Errorf("notes %v do not name the missing quarter", got.Notes)
		}
	})

	t.Run("missing interior quarter fails", func(t *testing.T) {
		var values []string
		for _, v := range fullQuarterRange() {
			if v != "1996q4" {
				values = append(values, v)
			}
		}
		got := CheckDataContinuity(quarterly(values...), true)
		if got.Success {
			t.Fatal("continuity passed despite a gap")
		}
		if !notesContain(got.Notes, "1996q4") {
			t.Errorf("notes %v do not name the missing quarter", got.Notes)
		}
	})

	t.Run("duplicate quarter fails", func(t *testing.T) {
		dp := quarterly("1995q1", "1995q2")
		dp.Resources = append(dp.Resources, manifest.Resource{
			Name:  "dup.zip",
			Bytes: 1,
			Parts: manifest.Partitions{"year_quarter": {"1995q2"}},
		})
		got := CheckDataContinuity(dp, true)
		if got.Success {
			t.Fatal("continuity passed despite a duplicate")
		}
		if !notesContain(got.Notes, "1995q2") {
			t.Errorf("notes %v do not name the duplicate quarter", got.Notes)
		}
	})

	t.Run("uppercase Q accepted", func(t *testing.T) {
		got := CheckDataContinuity(quarterly("2001Q1", "2001Q2", "2001q3"), true)
		if !got.Success {
			t.Fatalf("continuity failed: %v", got.Notes)
		}
	})

	t.Run("single quarter passes", func(t *testing.T) {
		got := CheckDataContinuity(quarterly("2020q3"), true)
		if !got.Success {
			t.Fatalf("continuity failed: %v", got.Notes)
		}
	})

	t.Run("unparseable value fails", func(t *testing.T) {
		got := CheckDataContinuity(quarterly("1995q1", "fall-1995"), true)
		if got.Success {
			t.Fatal("continuity passed with an unparseable value")
		}
	})
}

func TestCheckDataContinuityMonthly(t *testing.T) {
	t.Run("complete range passes", func(t *testing.T) {
		got := CheckDataContinuity(monthly("2020-01", "2020-02", "2020-03"), true)
		if !got.Success {
			t.Fatalf("continuity failed: %v", got.Notes)
		}
	})

	t.Run("year boundary passes", func(t *testing.T) {
		got := CheckDataContinuity(monthly("2019-11", "2019-12", "2020-01"), true)
		if !got.Success {
			t.Fatalf("continuity failed: %v", got.Notes)
		}
	})

	t.Run("missing month fails", func(t *testing.T) {
		got := CheckDataContinuity(monthly("2020-01", "2020-03"), true)
		if got.Success {
			t.Fatal("continuity passed despite a gap")
		}
		if !notesContain(got.Notes, "2020-02") {
			t.Errorf("notes %v do not name the missing month", got.Notes)
		}
	})

	t.Run("month out of range fails", func(t *testing.T) {
		got := CheckDataContinuity(monthly("2020-13"), true)
		if got.Success {
			t.Fatal("continuity passed with an invalid month")
		}
	})
}

func TestCheckDataContinuityNotApplicable(t *testing.T) {
	dp := &manifest.DataPackage{
		Name:    "test",
		Version: "2026.01.01",
		Resources: []manifest.Resource{
			{Name: "a.zip", Bytes: 1, Parts: manifest.Partitions{"year": {"2020"}}},
			{Name: "b.zip", Bytes: 1, Parts: manifest.Partitions{"year": {"2021"}}},
		},
	}
	got := CheckDataContinuity(dp, true)
	if !got.Success {
		t.Fatalf("continuity failed: %v", got.Notes)
	}
	if !notesContain(got.Notes, "not configured for this test") {
		t.Errorf("notes %v do not explain the skip", got.Notes)
	}
}

func TestCheckDataContinuityNoPartitions(t *testing.T) {
	dp := pkg(res("a.zip", 1), res("b.zip", 2))
	got := CheckDataContinuity(dp, true)
	if !got.Success {
		t.Fatalf("continuity failed: %v", got.Notes)
	}
}

func TestCheckDataContinuityMixedKinds(t *testing.T) {
	dp := quarterly("1995q1")
	dp.Resources = append(dp.Resources, manifest.Resource{
		Name:  "m.csv",
		Bytes: 1,
		Parts: manifest.Partitions{"year_month": {"2020-01"}},
	})
	got := CheckDataContinuity(dp, true)
	if got.Success {
		t.Fatal("continuity passed with mixed partition kinds")
	}
}
