package entry

import "time"

// Status represents the outcome of a build.
type Status uint8

const (
	StatusRunning Status = 0
	StatusOK      Status = 1
	StatusFailed  Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFailed:
		return "failed"
	default:
		return "running"
	}
}

// ParseStatus is the inverse of Status.String. Unknown values map to
// StatusRunning.
func ParseStatus(s string) Status {
	switch s {
	case "ok":
		return StatusOK
	case "failed":
		return StatusFailed
	default:
		return StatusRunning
	}
}

// Icon is one converted source file.
type Icon struct {
	Name       string
	SourcePath string
	OutputPath string

	SourceWidth  float64
	SourceHeight float64
	Scale        float64
	OffsetX      float64
	OffsetY      float64
	XLink        bool
	Bytes        int64 // Size of the written document

	// Ink bounds in canvas units, populated only when Checked is set.
	// Empty means the rendered canvas has no ink at all.
	Checked  bool
	InkX0    float64
	InkY0    float64
	InkX1    float64
	InkY1    float64
	Overflow bool
	Empty    bool

	Duration time.Duration
}

// Coverage returns the fraction of the content box covered by the scaled
// drawing.
func (i Icon) Coverage(contentSize float64) float64 {
	if contentSize <= 0 {
		return 0
	}
	return (i.SourceWidth * i.Scale) * (i.SourceHeight * i.Scale) / (contentSize * contentSize)
}

// BuildError represents a file that failed to convert.
type BuildError struct {
	Path    string
	Message string
}

// BuildMeta holds metadata about a build.
type BuildMeta struct {
	SourceDir     string
	DestDir       string
	StartTime     time.Time
	EndTime       time.Time
	IconCount     int64
	TotalBytes    int64
	OverflowCount int64
	EmptyCount    int64
	Status        Status
	Error         string
}
