package report

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"
)

// Onset is one stimulus or protocol event of a run, in seconds since trigger.
type Onset struct {
	Intended float64 `yaml:"intended"`
	Actual   float64 `yaml:"actual"`
	Type     string  `yaml:"type"`
	Label    string  `yaml:"label"`
}

// DesignLog collects the onsets of a run.
type DesignLog struct {
	mu      sync.Mutex
	Entries []Onset
}

func (l *DesignLog) Log(intended, actual float64, kind, label string) {
	l.mu.Lock()
	l.Entries = append(l.Entries, Onset{
		Intended: intended,
		Actual:   actual,
		Type:     kind,
		Label:    label,
	})
	l.mu.Unlock()
}

func (l *DesignLog) Onsets() []Onset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Onset(nil), l.Entries...)
}

func (l *DesignLog) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"intended_s", "actual_s", "type", "label"})
	for _, e := range l.Onsets() {
		w.Write([]string{
			strconv.FormatFloat(e.Intended, 'f', 3, 64),
			strconv.FormatFloat(e.Actual, 'f', 3, 64),
			e.Type,
			e.Label,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
