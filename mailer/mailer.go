// Package mailer sends notification emails, primarily low-attendance alerts
// to students.
package mailer

import (
	"context"
	"fmt"
)

// DefaultThreshold is the attendance percentage below which a student is
// alerted.
const DefaultThreshold = 75.0

// Recipient is a named email address.
type Recipient struct {
	Name  string
	Email string
}

// Message is one outbound email.
type Message struct {
	To       Recipient
	Subject  string
	TextBody string
	HTMLBody string
}

// SendReport counts delivery results for a batch.
type SendReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service delivers messages. Send is best-effort per message: one failure
// does not abort the batch.
type Service interface {
	Send(ctx context.Context, messages []Message) SendReport
}

// AttendanceStat is one student's aggregated attendance.
type AttendanceStat struct {
	StudentName string  `json:"name"`
	Email       string  `json:"email"`
	Total       int     `json:"total_classes"`
	Present     int     `json:"attended_classes"`
	Percentage  float64 `json:"attendance_percentage"`
}

// Mark is one raw attendance observation.
type Mark struct {
	StudentName string
	Status      string // "Present" or "Absent"
}

// Aggregate folds raw marks into per-student stats. resolve maps a student
// name to an email address; students it cannot resolve are dropped from the
// result, matching the alerting contract (no address, no alert).
func Aggregate(marks []Mark, resolve func(name string) (string, bool)) []AttendanceStat {
	type counts struct{ total, present int }
	byName := map[string]*counts{}
	var order []string
	for _, m := range marks {
		c, ok := byName[m.StudentName]
		if !ok {
			c = &counts{}
			byName[m.StudentName] = c
			order = append(order, m.StudentName)
		}
		c.total++
		if m.Status == "Present" {
			c.present++
		}
	}

	var out []AttendanceStat
	for _, name := range order {
		email, ok := resolve(name)
		if !ok {
			continue
		}
		c := byName[name]
		out = append(out, AttendanceStat{
			StudentName: name,
			Email:       email,
			Total:       c.total,
			Present:     c.present,
			Percentage:  float64(c.present) / float64(c.total) * 100,
		})
	}
	return out
}

// LowAttendance filters stats below the threshold percentage.
func LowAttendance(stats []AttendanceStat, threshold float64) []AttendanceStat {
	var out []AttendanceStat
	for _, s := range stats {
		if s.Percentage < threshold {
			out = append(out, s)
		}
	}
	return out
}

// BuildAttendanceAlerts renders one alert message per low-attendance
// student.
func BuildAttendanceAlerts(students []AttendanceStat) []Message {
	msgs := make([]Message, 0, len(students))
	for _, s := range students {
		msgs = append(msgs, Message{
			To:      Recipient{Name: s.StudentName, Email: s.Email},
			Subject: "Low Attendance Alert - Action Required",
			TextBody: fmt.Sprintf(
				"Dear %s,\n\nYour current attendance is %.1f%% (%d of %d classes attended), "+
					"which is below the required level. Please contact your teacher to discuss "+
					"how to improve your attendance.\n",
				s.StudentName, s.Percentage, s.Present, s.Total),
			HTMLBody: fmt.Sprintf(
				`<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`+
					`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`+
					`<h2 style="color: #d9534f;">Attendance Alert</h2>`+
					`<p>Dear <strong>%s</strong>,</p>`+
					`<p>This is an automated notification regarding your class attendance.</p>`+
					`<div style="background-color: #f8d7da; border-left: 4px solid #d9534f; padding: 15px;">`+
					`<p style="margin: 0;"><strong>Current Attendance:</strong> %.1f%%</p>`+
					`<p style="margin: 5px 0 0 0;"><strong>Classes Attended:</strong> %d out of %d</p>`+
					`</div>`+
					`<p>Please contact your teacher to discuss how to improve your attendance.</p>`+
					`</div></body></html>`,
				s.StudentName, s.Percentage, s.Present, s.Total),
		})
	}
	return msgs
}
