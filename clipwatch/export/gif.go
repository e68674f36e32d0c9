package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// ErrNoFrames is returned when an export is requested without any images
var ErrNoFrames = errors.New("no frames to export")

// Options configures a GIF export
type Options struct {
	// OutputPath is used as is when it ends in .gif, otherwise it names the
	// directory that receives progress_<unix>.gif
	OutputPath string
	// FrameDelay between frames; 500ms when zero
	FrameDelay time.Duration
	// MaxDimension bounds every frame; 0 keeps source sizes
	MaxDimension int
	// Workers decoding frames concurrently; DefaultExportWorkers when zero
	Workers int
	Logger  zerolog.Logger
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FrameDelay <= 0 {
		o.FrameDelay = time.Duration(internal.DefaultFrameDelayMs) * time.Millisecond
	}
	if o.Workers <= 0 {
		o.Workers = internal.DefaultExportWorkers
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.OutputPath == "" {
		o.OutputPath = internal.DefaultGifDir
	}
	return o
}

// ResolveOutputPath returns the file an export writes to
func ResolveOutputPath(output string, at time.Time) string {
	if strings.EqualFold(filepath.Ext(output), ".gif") {
		return output
	}
	return filepath.Join(output, fmt.Sprintf("progress_%d.gif", at.Unix()))
}

// GIF assembles the images at paths into an infinitely looping animation,
// one frame per image in the given order, and returns the written file.
// Any frame that cannot be decoded fails the whole export.
func GIF(ctx context.Context, paths []string, opts Options) (string, error) {
	if len(paths) == 0 {
		return "", ErrNoFrames
	}
	opts = opts.withDefaults()
	logger := opts.Logger.With().Str("component", "gif-export").Logger()

	frames, err := loadFrames(ctx, paths, opts)
	if err != nil {
		return "", err
	}

	anim := encodeFrames(frames, opts.FrameDelay)

	target := ResolveOutputPath(opts.OutputPath, opts.Now())
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrWrite, err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrWrite, err)
	}
	if err := gif.EncodeAll(f, anim); err != nil {
		f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: encode gif: %w", common.ErrWrite, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: %w", common.ErrWrite, err)
	}

	logger.Info().
		Str("output", target).
		Int("frames", len(frames)).
		Dur("delay", opts.FrameDelay).
		Msg("GIF exported")
	return target, nil
}

// loadFrames decodes every path on a bounded pool. Frames keep the input
// order regardless of completion order.
func loadFrames(ctx context.Context, paths []string, opts Options) ([]image.Image, error) {
	frames := make([]image.Image, len(paths))

	p := pool.New().
		WithMaxGoroutines(opts.Workers).
		WithErrors().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, path := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := imaging.Open(path, imaging.AutoOrientation(true))
			if err != nil {
				return fmt.Errorf("%w: frame %d %s: %w", common.ErrDecode, i, path, err)
			}
			if opts.MaxDimension > 0 {
				img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
			}
			frames[i] = img
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// encodeFrames quantizes each frame to a fixed palette with error diffusion.
// The logical screen is large enough for the biggest frame and each frame is
// anchored at the top left corner.
func encodeFrames(frames []image.Image, delay time.Duration) *gif.GIF {
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(frames)),
		Delay:     make([]int, 0, len(frames)),
		Disposal:  make([]byte, 0, len(frames)),
		LoopCount: 0,
	}

	// GIF delays are in hundredths of a second
	centis := int(delay / (10 * time.Millisecond))
	if centis < 1 {
		centis = 1
	}

	for _, frame := range frames {
		b := frame.Bounds()
		bounds := image.Rect(0, 0, b.Dx(), b.Dy())
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, frame, b.Min)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, centis)
		anim.Disposal = append(anim.Disposal, gif.DisposalBackground)

		if bounds.Dx() > anim.Config.Width {
			anim.Config.Width = bounds.Dx()
		}
		if bounds.Dy() > anim.Config.Height {
			anim.Config.Height = bounds.Dy()
		}
	}
	return anim
}
