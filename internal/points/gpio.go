//go:build linux

package points

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GPIOWriter drives selected digital output points on local GPIO lines, for
// interlock outputs that must not depend on the broker being up. Each mapped
// point id owns one line, requested as output.
type GPIOWriter struct {
	chip *gpiocdev.Chip

	mu    sync.Mutex
	lines map[string]*gpiocdev.Line
}

// NewGPIOWriter opens the chip and requests one output line per mapped
// point. outputs maps point ids to line offsets.
func NewGPIOWriter(chipName string, outputs map[string]int) (*GPIOWriter, error) {
	if chipName == "" {
		chipName = "gpiochip0"
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	w := &GPIOWriter{chip: chip, lines: make(map[string]*gpiocdev.Line, len(outputs))}
	for pointID, offset := range outputs {
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request line %d for point %s: %w", offset, pointID, err)
		}
		w.lines[pointID] = line
	}
	return w, nil
}

// Write sets the mapped line for the point.
func (w *GPIOWriter) Write(pointID string, value bool) error {
	w.mu.Lock()
	line, ok := w.lines[pointID]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("point %s has no gpio line", pointID)
	}
	v := 0
	if value {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set line for point %s: %w", pointID, err)
	}
	return nil
}

// Points returns the point ids this writer handles, for Router wiring.
func (w *GPIOWriter) Points() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	ids := make([]string, 0, len(w.lines))
	for id := range w.lines {
		ids = append(ids, id)
	}
	return ids
}

// Close reconfigures every line back to input before releasing it, so an
// engine restart never leaves an interlock output floating high.
func (w *GPIOWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for pointID, line := range w.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line for %s: %w", pointID, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line for %s: %w", pointID, err))
		}
	}
	w.lines = map[string]*gpiocdev.Line{}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
