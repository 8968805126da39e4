// Copyright (C) 2025 Sanders Data, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package partition derives the logical processing date that addresses
// one run's raw input partition and both of its outputs.
package partition

import (
	"strings"
	"time"
)

// DateFormat is the ISO calendar date layout used for partition
// addressing everywhere: S3 date= path segments and the DynamoDB sort key.
const DateFormat = "2006-01-02"

// layouts accepted for the scheduler-supplied timestamp. Step Functions
// sends RFC-3339 with a trailing Z; the others show up in manual reruns.
var scheduledTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateFormat,
}

// ResolveDate returns the logical processing date for a run.
//
// When the scheduled time is present and parseable, its date component
// wins, so a retried execution lands on the partition of its original
// schedule. Anything else falls back to the current UTC date: a
// malformed timestamp must not abort the run, it only loses the ability
// to time-travel. ResolveDate never fails.
func ResolveDate(scheduledTime string) string {
	return resolveDateAt(scheduledTime, time.Now().UTC())
}

func resolveDateAt(scheduledTime string, now time.Time) string {
	st := strings.TrimSpace(scheduledTime)
	if st != "" {
		for _, layout := range scheduledTimeLayouts {
			if t, err := time.Parse(layout, st); err == nil {
				return t.Format(DateFormat)
			}
		}
	}
	return now.Format(DateFormat)
}
