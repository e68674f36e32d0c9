package extract

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	internal "github.com/ZanzyTHEbar/clipwatch/clipwatch"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/common"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/types"
	"github.com/ZanzyTHEbar/clipwatch/clipwatch/filesystem/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Options configures an Extractor
type Options struct {
	OutputDir             string
	CandidateTables       []string
	MinBlobSize           int
	ThumbnailMaxDimension int
	// TempDir holds the disposable store copies; os.TempDir when empty
	TempDir string
}

// DefaultOptions returns the stock extraction settings writing into outputDir
func DefaultOptions(outputDir string) Options {
	return Options{
		OutputDir:             outputDir,
		CandidateTables:       append([]string(nil), internal.DefaultCandidateTables...),
		MinBlobSize:           internal.DefaultMinBlobSize,
		ThumbnailMaxDimension: internal.DefaultThumbnailMaxDimension,
	}
}

// Extractor turns a host project file into an ExtractionResult.
type Extractor struct {
	opts         Options
	selector     *BlobSelector
	materializer *Materializer
	metrics      *common.ExtractionMetrics
	pathUtils    *common.PathUtils
	errUtils     *common.ErrorUtils
	logger       zerolog.Logger
	now          func() time.Time
}

// NewExtractor creates an extractor. metrics may be nil.
func NewExtractor(opts Options, logger zerolog.Logger, metrics *common.ExtractionMetrics) *Extractor {
	if metrics == nil {
		metrics = common.NewExtractionMetrics()
	}
	logger = logger.With().Str("component", "extractor").Logger()

	// Emitted paths are absolute even for a relative output directory.
	pathUtils := common.NewPathUtils()
	if opts.OutputDir != "" {
		opts.OutputDir = pathUtils.NormalizePath(opts.OutputDir)
	}

	return &Extractor{
		opts:         opts,
		selector:     NewBlobSelector(opts.CandidateTables, opts.MinBlobSize, logger),
		materializer: NewMaterializer(opts.ThumbnailMaxDimension),
		metrics:      metrics,
		pathUtils:    pathUtils,
		errUtils:     common.NewErrorUtils(),
		logger:       logger,
		now:          time.Now,
	}
}

// Metrics returns the metrics the extractor records into
func (e *Extractor) Metrics() *common.ExtractionMetrics {
	return e.metrics
}

// Extract runs one attempt and always returns a result; failures are logged
// and reported through the result status and message.
func (e *Extractor) Extract(ctx context.Context, path string) *types.ExtractionResult {
	result, err := e.ExtractE(ctx, path)
	if err != nil {
		e.logger.Warn().
			Str("path", path).
			Str("attempt", result.AttemptID).
			Str("kind", common.KindOf(err)).
			Err(err).
			Msg("Preview extraction failed")
		return result
	}

	e.logger.Info().
		Str("path", path).
		Str("attempt", result.AttemptID).
		Str("thumbnail", result.SmallPath).
		Msg("Preview extracted")
	return result
}

// ExtractE is Extract that also returns the typed pipeline error. The result
// is never nil.
func (e *Extractor) ExtractE(ctx context.Context, path string) (*types.ExtractionResult, error) {
	start := time.Now()
	attemptID := uuid.New().String()
	at := e.now()

	full, thumb, metadata, err := e.run(ctx, path, attemptID, at)
	e.metrics.Observe(start, err)

	if err != nil {
		return types.NewFailureResult(attemptID, path, at, err), err
	}
	return types.NewSuccessResult(attemptID, path, full, thumb, at, metadata), nil
}

func (e *Extractor) run(ctx context.Context, path, attemptID string, at time.Time) (string, string, map[string]string, error) {
	if err := e.pathUtils.ValidatePath(path); err != nil {
		return "", "", nil, e.errUtils.WrapKind(common.ErrInputNotFound, err, "invalid path %q", path)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", "", nil, e.errUtils.WrapKind(common.ErrInputNotFound, nil, "%s", path)
		}
		return "", "", nil, e.errUtils.WrapKind(common.ErrInputNotFound, err, "read %s", path)
	}

	if !HasHostHeader(buf) {
		e.logger.Debug().Str("path", path).Msg("Host container magic missing, scanning anyway")
	}

	blob, err := e.readPreview(ctx, buf, attemptID)
	if err != nil {
		return "", "", nil, err
	}

	_, base, _ := e.pathUtils.SplitPath(path)
	full, thumb, err := e.materializer.Materialize(blob, e.opts.OutputDir, base, at)
	if err != nil {
		return "", "", nil, err
	}

	return full, thumb, utils.ExtractEXIFBytes(blob), nil
}

// readPreview isolates the embedded store and pulls the preview blob out of
// it. The store copy is gone when this returns.
func (e *Extractor) readPreview(ctx context.Context, buf []byte, attemptID string) ([]byte, error) {
	offset, err := LocateEmbeddedStore(buf)
	if err != nil {
		return nil, err
	}

	storePath, cleanup, err := IsolateStore(buf, offset, e.opts.TempDir, attemptID)
	if err != nil {
		return nil, e.errUtils.WrapKind(common.ErrStoreOpen, err, "isolate store at offset %d", offset)
	}
	defer cleanup()

	db, err := OpenStore(ctx, storePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return e.selector.Select(ctx, db)
}
