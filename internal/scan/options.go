package scan

import (
	"regexp"

	"github.com/michaelscutari/sdficon/internal/preview"
)

// Options configures a conversion run.
type Options struct {
	// Workers is the number of files converted concurrently. One worker
	// converts files strictly in name order.
	Workers int

	// ExcludePatterns are regular expressions matched against file names.
	ExcludePatterns []*regexp.Regexp

	// Verbose enables diagnostic output on stderr.
	Verbose bool

	// Preview controls rasterization after each file is written.
	Preview preview.Options
}

// DefaultOptions returns the sequential reference configuration.
func DefaultOptions() *Options {
	return &Options{
		Workers: 1,
		Preview: preview.Options{Scale: 1},
	}
}

// WithWorkers sets the number of workers.
func (o *Options) WithWorkers(n int) *Options {
	o.Workers = n
	return o
}

// WithVerbose toggles diagnostic output.
func (o *Options) WithVerbose(v bool) *Options {
	o.Verbose = v
	return o
}

// WithPreview sets the rasterization options.
func (o *Options) WithPreview(p preview.Options) *Options {
	o.Preview = p
	return o
}

// AddExcludePattern adds a pattern to exclude.
func (o *Options) AddExcludePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	o.ExcludePatterns = append(o.ExcludePatterns, re)
	return nil
}

// ShouldExclude checks if a file name matches any exclude pattern.
func (o *Options) ShouldExclude(name string) bool {
	for _, re := range o.ExcludePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
