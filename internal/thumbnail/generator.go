package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// FrameOffset is where in the video the preview frame is sampled.
const FrameOffset = 500 * time.Millisecond

// Generator rasterizes a single preview frame from a video file.
type Generator interface {
	Generate(ctx context.Context, videoPath string) ([]byte, error)
}

type ffmpegGenerator struct {
	binary  string
	timeout time.Duration
}

// NewFFmpegGenerator builds a Generator that shells out to ffmpeg to
// decode one frame at the fixed offset.
func NewFFmpegGenerator(binary string) Generator {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ffmpegGenerator{binary: binary, timeout: 30 * time.Second}
}

func (g *ffmpegGenerator) Generate(ctx context.Context, videoPath string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	offset := fmt.Sprintf("%.3f", FrameOffset.Seconds())
	cmd := exec.CommandContext(ctx, g.binary,
		"-ss", offset,
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extract: %w: %s", err, stderr.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame for %s", videoPath)
	}
	return out.Bytes(), nil
}

// placeholderPNG is the fixed substitute image linked when generation
// fails. A plain gray 8x8 square.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0x08,
	0x08, 0x00, 0x00, 0x00, 0x00, 0xe1, 0x64, 0xe1, 0x57, 0x00, 0x00, 0x00,
	0x0e, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x08, 0x80, 0x02, 0x06,
	0xca, 0x18, 0x00, 0xd0, 0x66, 0x14, 0x01, 0x87, 0x15, 0x4a, 0xc2, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Placeholder returns a copy of the error placeholder image.
func Placeholder() []byte {
	out := make([]byte, len(placeholderPNG))
	copy(out, placeholderPNG)
	return out
}
