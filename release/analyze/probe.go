package analyze

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/go-faster/errors"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// Prober extracts stream information from an audio file.
type Prober interface {
	// Probe inspects the file at path, never returns nil without an error.
	Probe(path string) (*ProbeResult, error)
}

// ProbeResult is the subset of probe output the analyzer consumes.
type ProbeResult struct {
	// BitrateKbps is the audio bitrate rounded to whole kbps, 0 when unknown.
	BitrateKbps int
	// VariableBitrate reports whether the audio stream has no constant bitrate.
	VariableBitrate bool
	// DurationSeconds is the stream duration, 0 when unknown.
	DurationSeconds float64
}

// ffprobeProber is a Prober backed by the ffprobe binary.
type ffprobeProber struct {
}

// NewFFProbeProber creates a Prober backed by the ffprobe binary.
func NewFFProbeProber() Prober {
	return &ffprobeProber{}
}

// ffprobeOutput is the subset of ffprobe's JSON output the prober reads.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		BitRate   string `json:"bit_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe on the file at path.
func (fp *ffprobeProber) Probe(path string) (*ProbeResult, error) {
	out, err := ffmpeg_go.Probe(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to probe file")
	}

	var probe ffprobeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal probe output")
	}

	result := &ProbeResult{}
	if d, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		result.DurationSeconds = d
	}

	// a stream without its own bit_rate has no constant bitrate
	streamBitrate := ""
	for _, stream := range probe.Streams {
		if stream.CodecType == "audio" {
			streamBitrate = stream.BitRate
			break
		}
	}
	if streamBitrate == "" {
		result.VariableBitrate = true
		return result, nil
	}

	if bps, err := strconv.ParseFloat(streamBitrate, 64); err == nil && bps > 0 {
		result.BitrateKbps = int(math.Round(bps / 1000))
	}

	return result, nil
}
