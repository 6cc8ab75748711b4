package session

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrScanType = errors.New("choose a scan type")
	ErrAge      = errors.New("please enter age in years")
)

type ScanType string

const (
	Rest    ScanType = "REST"
	MBPCASL ScanType = "mbPCASL"
)

// DateFormat is used in file names.
const DateFormat = "2006-01-02_150405"

// ParseScanType accepts REST and mbPCASL (ASL is an alias), case-insensitively.
func ParseScanType(s string) (ScanType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REST":
		return Rest, nil
	case "MBPCASL", "ASL":
		return MBPCASL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrScanType, s)
}

// ParseAge reads the participant's age in (possibly fractional) years.
func ParseAge(s string) (float64, error) {
	age, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(age) || math.IsInf(age, 0) || age < 0 {
		return 0, fmt.Errorf("%w: %q", ErrAge, s)
	}
	return age, nil
}

// Info is what the operator enters before a session.
type Info struct {
	ID          string
	Scan        ScanType
	Age         float64
	Participant string
	Session     string
	FirstRun    int
	TestMode    bool
	Date        time.Time
}

// New validates the operator's input and stamps the session with an ID.
func New(scan, age, participant, sess string, firstRun int, testMode bool, now time.Time) (Info, error) {
	st, err := ParseScanType(scan)
	if err != nil {
		return Info{}, err
	}
	a, err := ParseAge(age)
	if err != nil {
		return Info{}, err
	}
	if firstRun < 1 {
		firstRun = 1
	}
	return Info{
		ID:          uuid.NewString(),
		Scan:        st,
		Age:         a,
		Participant: participant,
		Session:     sess,
		FirstRun:    firstRun,
		TestMode:    testMode,
		Date:        now,
	}, nil
}

// Plan is the run layout of a scan.
type Plan struct {
	Runs        int
	RunDuration time.Duration
	// Countdown shows 4-3-2-1 on the participant screen after the trigger.
	Countdown     bool
	CountdownFrom int
	CountdownStep time.Duration
}

// PlanFor returns the run layout: one 240 s run for mbPCASL; for REST two
// 400.4 s runs from age 8 up, three 180 s runs below.
func PlanFor(info Info) Plan {
	if info.Scan == MBPCASL {
		return Plan{Runs: 1, RunDuration: 240 * time.Second}
	}

	p := Plan{Countdown: true, CountdownFrom: 4, CountdownStep: 2 * time.Second}
	if info.Age >= 8 {
		p.Runs = 2
		p.RunDuration = 400400 * time.Millisecond
	} else {
		p.Runs = 3
		p.RunDuration = 180 * time.Second
	}
	return p
}

// RunNumbers lists the run numbers still to acquire, starting at FirstRun.
func (p Plan) RunNumbers(first int) []int {
	if first < 1 {
		first = 1
	}
	var out []int
	for n := first; n <= p.Runs; n++ {
		out = append(out, n)
	}
	return out
}

// Stem is the shared prefix of every file of the session.
func (i Info) Stem() string {
	parts := []string{string(i.Scan)}
	if i.Participant != "" {
		parts = append(parts, i.Participant)
	}
	parts = append(parts, i.Session)
	return strings.Join(parts, "_")
}

// FileBase is the path prefix of one run's artifacts.
func (i Info) FileBase(dataDir string, run int) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_run%d_%s", i.Stem(), run, i.Date.Format(DateFormat)))
}

// LogPath is the session log file.
func (i Info) LogPath(dataDir string) string {
	return filepath.Join(dataDir, i.Stem()+".log")
}

// Instructions is read aloud by the RA before the first run.
const Instructions = `"In the next scan all you are going to see is a white plus sign in the middle ` +
	`of the screen. Your job is to simply rest, keep your eyes open, and look at the ` +
	`plus sign during the entire scan. You can blink normally, and you do not have ` +
	`to think about anything in particular. However, it is very important that you do ` +
	`not fall asleep, and as always, that you stay very still from beginning to ` +
	`end.

Does that make sense? Do you have any questions? Are you ready to begin?"`
