// Package history maintains each pool's append-only command history: one
// CSV record (timestamp, command line, user, host) per mutating invocation.
package history

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dozefs/dozefs/pkg/dataset"
)

const timeLayout = "2006-01-02.15:04:05"

// Record is one logged invocation.
type Record struct {
	Time    string
	Command string
	User    string
	Host    string
}

// String renders the record; long format appends the invoking user and
// host.
func (r Record) String(long bool) string {
	if long {
		return fmt.Sprintf("%s %s [user %s on %s]", r.Time, r.Command, r.User, r.Host)
	}
	return fmt.Sprintf("%s %s", r.Time, r.Command)
}

// Append logs one record for argv to the pool's history file. Zero-valued
// now/user/host default to the current time, invoking user, and hostname.
func Append(pool *dataset.Pool, argv []string, now time.Time, username, host string) error {
	if now.IsZero() {
		now = time.Now()
	}
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}
	if host == "" {
		host, _ = os.Hostname()
	}

	f, err := os.OpenFile(pool.HistoryPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open history for pool %s", pool.Name())
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{now.Format(timeLayout), strings.Join(argv, " "), username, host}); err != nil {
		return errors.Wrapf(err, "log history for pool %s", pool.Name())
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "log history for pool %s", pool.Name())
}

// Records reads the pool's history. A pool with no history file has no
// records.
func Records(pool *dataset.Pool) ([]Record, error) {
	f, err := os.Open(pool.HistoryPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "open history for pool %s", pool.Name())
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read history for pool %s", pool.Name())
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		if len(row) != 4 {
			continue
		}
		records = append(records, Record{Time: row[0], Command: row[1], User: row[2], Host: row[3]})
	}
	return records, nil
}
