// Package trajectory reads and writes the orbit text log consumed by the
// visualization client, and loads TOML job manifests describing a run.
package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dstuartbryant/spacewego/internal/earthmodel"
	"github.com/dstuartbryant/spacewego/internal/frames"
	"github.com/dstuartbryant/spacewego/internal/orient"
	"github.com/dstuartbryant/spacewego/internal/propagation"
	"github.com/dstuartbryant/spacewego/internal/timescale"
)

// Header is the preamble of a trajectory log.
type Header struct {
	RunID        string
	Frame        string // frame of the position rows, empty if unknown
	EarthRadius  float64 // km
	InitialERA   float64 // radians
	RotationRate float64 // rad/s
}

// Row is one parsed data line.
type Row struct {
	Timestamp string
	Elapsed   float64 // seconds
	Position  r3.Vec  // km
}

const (
	titleLine    = "# Orbital Data"
	runIDPrefix  = "# Run ID: "
	framePrefix  = "# Frame: "
	radiusKey    = "Earth Radius [km]"
	eraKey       = "Initial Earth rotation angle [radians]"
	rateKey      = "Earth rotation angular rate [radians/second]"
	dataLine     = "# Timing and ECI position data follows"
	formatLine   = "# Format: <timestamp-string>,<time-since-epoch-seconds>,<ECI-x-position-km>,<ECI-y-position-km>,<ECI-z-position-km>"
	rowFieldsLen = 5
)

// ErrMalformed is returned by Read for logs that do not follow the format.
var ErrMalformed = errors.New("trajectory: malformed log")

// NewHeader builds the header for a run starting at epoch whose rows are
// in frame. The initial ERA goes through orient.EarthRotationAngle like
// every other ERA in the service.
func NewHeader(runID string, m earthmodel.Model, epoch timescale.Epoch, frame frames.ID, eop timescale.EOPSource) (Header, error) {
	era, err := orient.EarthRotationAngle(epoch, eop)
	if err != nil {
		return Header{}, fmt.Errorf("initial earth rotation angle: %w", err)
	}
	h := Header{
		RunID:        runID,
		EarthRadius:  m.Radius(),
		InitialERA:   era.Rad(),
		RotationRate: m.RotationRate(),
	}
	if frame != frames.Unspecified {
		h.Frame = frame.String()
	}
	return h, nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// WriteHeader writes the header block.
func WriteHeader(w io.Writer, h Header) error {
	var b strings.Builder
	b.WriteString(titleLine + "\n")
	if h.RunID != "" {
		b.WriteString(runIDPrefix + h.RunID + "\n")
	}
	if h.Frame != "" {
		b.WriteString(framePrefix + h.Frame + "\n")
	}
	fmt.Fprintf(&b, "%s: %s\n", radiusKey, formatFloat(h.EarthRadius))
	fmt.Fprintf(&b, "%s: %s\n", eraKey, formatFloat(h.InitialERA))
	fmt.Fprintf(&b, "%s: %s\n", rateKey, formatFloat(h.RotationRate))
	b.WriteString(dataLine + "\n")
	b.WriteString(formatLine + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSample writes one data line.
func WriteSample(w io.Writer, s propagation.Sample) error {
	_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s\n",
		s.Epoch, formatFloat(s.Elapsed),
		formatFloat(s.Position.X), formatFloat(s.Position.Y), formatFloat(s.Position.Z))
	return err
}

// Write writes a complete log.
func Write(w io.Writer, h Header, samples []propagation.Sample) error {
	bw := bufio.NewWriter(w)
	if err := WriteHeader(bw, h); err != nil {
		return err
	}
	for _, s := range samples {
		if err := WriteSample(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save writes a complete log to path atomically (write temp + rename).
func Save(path string, h Header, samples []propagation.Sample) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := Write(f, h, samples); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing trajectory: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// Read parses a log written by Write.
func Read(r io.Reader) (Header, []Row, error) {
	var (
		h        Header
		rows     []Row
		seen     = map[string]bool{}
		lineNo   int
		sawTitle bool
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == titleLine:
			sawTitle = true
		case strings.HasPrefix(line, runIDPrefix):
			h.RunID = strings.TrimSpace(strings.TrimPrefix(line, runIDPrefix))
		case strings.HasPrefix(line, framePrefix):
			h.Frame = strings.TrimSpace(strings.TrimPrefix(line, framePrefix))
		case strings.HasPrefix(line, "#"):
			continue
		case strings.Contains(line, "]:"):
			key, val, _ := strings.Cut(line, ":")
			v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return h, rows, fmt.Errorf("%w: line %d: %q: %v", ErrMalformed, lineNo, key, err)
			}
			switch key {
			case radiusKey:
				h.EarthRadius = v
			case eraKey:
				h.InitialERA = v
			case rateKey:
				h.RotationRate = v
			default:
				return h, rows, fmt.Errorf("%w: line %d: unknown key %q", ErrMalformed, lineNo, key)
			}
			seen[key] = true
		default:
			row, err := parseRow(line)
			if err != nil {
				return h, rows, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNo, err)
			}
			rows = append(rows, row)
		}
	}
	if err := sc.Err(); err != nil {
		return h, rows, err
	}
	if !sawTitle {
		return h, rows, fmt.Errorf("%w: missing %q", ErrMalformed, titleLine)
	}
	for _, k := range []string{radiusKey, eraKey, rateKey} {
		if !seen[k] {
			return h, rows, fmt.Errorf("%w: missing %q", ErrMalformed, k)
		}
	}
	return h, rows, nil
}

func parseRow(line string) (Row, error) {
	fields := strings.Split(line, ",")
	if len(fields) != rowFieldsLen {
		return Row{}, fmt.Errorf("want %d fields, got %d", rowFieldsLen, len(fields))
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[i+1]), 64)
		if err != nil {
			return Row{}, err
		}
		v[i] = f
	}
	return Row{
		Timestamp: strings.TrimSpace(fields[0]),
		Elapsed:   v[0],
		Position:  r3.Vec{X: v[1], Y: v[2], Z: v[3]},
	}, nil
}
