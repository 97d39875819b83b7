package mailer

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func rosterOf(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		email, ok := m[name]
		return email, ok
	}
}

func TestAggregate(t *testing.T) {
	marks := []Mark{
		{StudentName: "Alice", Status: "Present"},
		{StudentName: "Alice", Status: "Absent"},
		{StudentName: "Alice", Status: "Present"},
		{StudentName: "Bob", Status: "Absent"},
		{StudentName: "Ghost", Status: "Absent"},
	}
	stats := Aggregate(marks, rosterOf(map[string]string{
		"Alice": "alice@school.test",
		"Bob":   "bob@school.test",
	}))

	if len(stats) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	alice := stats[0]
	if alice.StudentName != "Alice" || alice.Total != 3 || alice.Present != 2 {
		t.Fatalf("alice = %+v", alice)
	}
	if alice.Percentage < 66.6 || alice.Percentage > 66.7 {
		t.Fatalf("alice pct = %v", alice.Percentage)
	}
	if stats[1].Percentage != 0 {
		t.Fatalf("bob pct = %v", stats[1].Percentage)
	}
}

func TestLowAttendance(t *testing.T) {
	stats := []AttendanceStat{
		{StudentName: "A", Percentage: 74.9},
		{StudentName: "B", Percentage: 75.0},
		{StudentName: "C", Percentage: 100},
	}
	low := LowAttendance(stats, DefaultThreshold)
	if len(low) != 1 || low[0].StudentName != "A" {
		t.Fatalf("low = %+v", low)
	}
}

func TestBuildAttendanceAlerts(t *testing.T) {
	msgs := BuildAttendanceAlerts([]AttendanceStat{
		{StudentName: "Alice", Email: "alice@school.test", Total: 10, Present: 6, Percentage: 60},
	})
	if len(msgs) != 1 {
		t.Fatalf("msgs = %d", len(msgs))
	}
	m := msgs[0]
	if m.To.Email != "alice@school.test" {
		t.Fatalf("to = %+v", m.To)
	}
	if !strings.Contains(m.Subject, "Low Attendance") {
		t.Fatalf("subject = %q", m.Subject)
	}
	for _, body := range []string{m.TextBody, m.HTMLBody} {
		if !strings.Contains(body, "60.0%") || !strings.Contains(body, "6 out of 10") && !strings.Contains(body, "6 of 10") {
			t.Fatalf("body missing stats: %q", body)
		}
	}
}

func TestConsoleService(t *testing.T) {
	svc := NewConsole(slog.Default())
	report := svc.Send(context.Background(), []Message{
		{To: Recipient{Email: "a@b.test"}, Subject: "s"},
		{To: Recipient{Email: "c@d.test"}, Subject: "s"},
	})
	if report.Sent != 2 || report.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
}
