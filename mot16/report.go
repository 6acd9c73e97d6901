// Package mot16 implements the persistence collaborators documented for the
// tracking core: the MOT challenge result-line writer and the detection-file
// reader. The core engine has no dependency on this package.
package mot16

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mvtrack/sort-go/mot"
)

// Writer emits MOT challenge result lines:
//
//	frame,identity,left,top,width,height,-1,-1,-1,-1
type Writer struct {
	w *bufio.Writer
}

// NewWriter wraps the destination stream
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteFrame appends one result line per binding. Frames are 1-based in the
// MOT convention.
func (w *Writer) WriteFrame(frame int, bindings []mot.Binding) error {
	for _, b := range bindings {
		_, err := fmt.Fprintf(w.w, "%d,%d,%d,%d,%d,%d,-1,-1,-1,-1\n",
			frame, b.ID, b.Box.Left, b.Box.Top, b.Box.Width(), b.Box.Height())
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush writes out any buffered lines
func (w *Writer) Flush() error {
	return w.w.Flush()
}
