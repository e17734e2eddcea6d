package databases

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/tidwall/buntdb"
)

const (
	MEMORY_PREFS = ":memory:"

	prefDuration = "pref:duration"
)

// Preferences stores operator input defaults between launches. It never
// stores run results.
type Preferences struct {
	db *buntdb.DB
}

func OpenPreferences(path string) (*Preferences, error) {
	if path == "" {
		path = MEMORY_PREFS
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences %s: %w", path, err)
	}

	return &Preferences{db: db}, nil
}

func (p *Preferences) Close() error {
	return p.db.Close()
}

// LastDuration returns the duration of the most recent start request, if any.
func (p *Preferences) LastDuration() (int, bool) {
	var duration int
	found := false

	p.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(prefDuration)
		if err != nil {
			return err
		}
		d, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		duration = d
		found = true
		return nil
	})

	return duration, found
}

func (p *Preferences) SetLastDuration(duration int) error {
	err := p.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(prefDuration, strconv.Itoa(duration), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save duration: %w", err)
	}
	return nil
}

// Forget removes every stored preference.
func (p *Preferences) Forget() error {
	return p.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(prefDuration)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
}
