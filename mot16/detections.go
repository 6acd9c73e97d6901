package mot16

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mvtrack/sort-go/mot"
)

// LoadDetections reads a MOT challenge detection file
// (frame,-1,left,top,width,height,confidence,...) and returns per-frame
// detection sequences, index 0 holding frame 1. Detections below
// minConfidence are dropped. Frames without detections come back as empty
// slices: a valid quiescent state for the engine.
func LoadDetections(r io.Reader, minConfidence float64) ([][]mot.Detection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	frames := make([][]mot.Detection, 0)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "can't read detection file")
		}
		line++
		if len(record) < 7 {
			return nil, errors.Errorf("line %d: expected at least 7 fields, got %d", line, len(record))
		}

		frame, err := strconv.Atoi(record[0])
		if err != nil || frame < 1 {
			return nil, errors.Errorf("line %d: bad frame number %q", line, record[0])
		}
		fields := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, errors.Errorf("line %d: bad field %q", line, record[i+2])
			}
			fields[i] = v
		}
		left, top, width, height, confidence := fields[0], fields[1], fields[2], fields[3], fields[4]
		if confidence < minConfidence {
			continue
		}

		for len(frames) < frame {
			frames = append(frames, []mot.Detection{})
		}
		box := mot.NewRect(
			int(math.Round(left)),
			int(math.Round(top)),
			int(math.Round(left+width)),
			int(math.Round(top+height)),
		)
		frames[frame-1] = append(frames[frame-1], mot.NewDetection(frame, box, confidence, nil))
	}
	return frames, nil
}
