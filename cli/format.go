package cli

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hotelbey/bey/engine"
)

func formatTime(v engine.Time) string {
	if v.IsZero() {
		return ""
	}
	return time.Time(v).Format(time.RFC3339)
}

func formatRetries(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func newTable(headers []string) table {
	rows := make([][]string, 2)
	rows[0] = headers
	rows[1] = make([]string, len(headers))

	return table{rows: rows}
}

type table struct {
	rows [][]string
}

func (t *table) addRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *table) format() string {
	rows := t.rows

	columns := make([]int, len(rows[0]))
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			l := utf8.RuneCountInString(rows[i][j])
			if columns[j] < l {
				columns[j] = l
			}
		}
	}

	var sb strings.Builder
	for i := 0; i < len(rows); i++ {
		for j := 0; j < len(columns); j++ {
			if j != 0 {
				sb.WriteString("   ")
			}

			value := rows[i][j]
			sb.WriteString(value)

			if j == len(columns)-1 {
				continue
			}

			l := utf8.RuneCountInString(value)
			for k := 0; k < columns[j]-l; k++ {
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}

	return sb.String()
}

// newTaskTable creates a table, which lists tasks without variables.
func newTaskTable(tasks []engine.Task) table {
	table := newTable([]string{
		"ID",
		"TOPIC NAME",
		"BUSINESS KEY",
		"PRIORITY",
		"RETRIES",
		"WORKER ID",
		"LOCK EXPIRATION TIME",
	})

	for _, task := range tasks {
		table.addRow([]string{
			task.Id,
			task.TopicName,
			task.BusinessKey,
			strconv.FormatInt(task.Priority, 10),
			formatRetries(task.Retries),
			task.WorkerId,
			formatTime(task.LockExpirationTime),
		})
	}

	return table
}
