package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionMirror is a session.Persistence scoped to one profile, so that
// clients running under different profiles never share a session.
type SessionMirror struct {
	db      *DB
	profile string
}

// SessionMirror returns the mirror for profile.
func (d *DB) SessionMirror(profile string) *SessionMirror {
	return &SessionMirror{db: d, profile: profile}
}

func (m *SessionMirror) Get(key string) (string, bool, error) {
	var value string
	err := m.db.db.QueryRow(`SELECT value FROM session WHERE profile = ? AND key = ?`,
		m.profile, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s/%s: %w", m.profile, key, err)
	}
	return value, true, nil
}

func (m *SessionMirror) Set(key, value string) error {
	_, err := m.db.db.Exec(`INSERT OR REPLACE INTO session (profile, key, value, updated_at)
		VALUES (?, ?, ?, ?)`, m.profile, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", m.profile, key, err)
	}
	return nil
}

func (m *SessionMirror) Remove(key string) error {
	_, err := m.db.db.Exec(`DELETE FROM session WHERE profile = ? AND key = ?`, m.profile, key)
	if err != nil {
		return fmt.Errorf("removing %s/%s: %w", m.profile, key, err)
	}
	return nil
}

// ProfileInfo summarizes a profile that holds mirrored session data.
type ProfileInfo struct {
	Name      string
	Keys      int
	UpdatedAt time.Time
}

// Profiles lists profiles with stored session data, most recent first.
func (d *DB) Profiles() ([]ProfileInfo, error) {
	rows, err := d.db.Query(`SELECT profile, COUNT(*), MAX(updated_at) FROM session
		GROUP BY profile ORDER BY MAX(updated_at) DESC, profile ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ProfileInfo
	for rows.Next() {
		var p ProfileInfo
		var updated int64
		if err := rows.Scan(&p.Name, &p.Keys, &updated); err != nil {
			return nil, err
		}
		p.UpdatedAt = time.Unix(updated, 0)
		result = append(result, p)
	}
	return result, rows.Err()
}
