package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/decker502/particle-baker/internal/archive"
	"github.com/decker502/particle-baker/internal/logging"
	"github.com/decker502/particle-baker/internal/particle"
	"github.com/decker502/particle-baker/internal/skeleton"
	"github.com/decker502/particle-baker/pkg/systems"
)

// PreviewFileName is the archive name of the preview image.
const PreviewFileName = "preview.png"

// ExportError is the single human-readable failure of an export.
type ExportError struct {
	Msg string
	Err error
}

func (e *ExportError) Error() string { return e.Msg }

func (e *ExportError) Unwrap() error { return e.Err }

func exportErr(err error, format string, args ...any) *ExportError {
	return &ExportError{Msg: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// ImageEncoder writes an image in a file format.
type ImageEncoder func(w io.Writer, img image.Image) error

// FileNames are the fixed entry names of one archive.
type FileNames struct {
	Sprite   string
	Preview  string
	Atlas    string
	Document string
}

// FileNamesFor returns the archive entry names for a skeleton name.
func FileNamesFor(skeletonName string) FileNames {
	return FileNames{
		Sprite:   skeletonName + ".png",
		Preview:  PreviewFileName,
		Atlas:    skeletonName + ".atlas",
		Document: skeletonName + ".json",
	}
}

// Result is one committed export.
type Result struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Skeleton  string
	Files     FileNames
	Archive   []byte

	Document *skeleton.Document
	Bake     *BakeResult

	LoopTracks    int
	PrewarmTracks int
	Keys          int
}

// Exporter runs the export stages and keeps the last successful result.
// A failed export leaves the previous result in place and produces no archive.
type Exporter struct {
	encode ImageEncoder
	opts   []systems.Option
	now    func() time.Time
	last   *Result
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithImageEncoder replaces the PNG encoder.
func WithImageEncoder(enc ImageEncoder) ExporterOption {
	return func(e *Exporter) { e.encode = enc }
}

// WithEngineOptions passes options to the bake engine, e.g. a fixed random source.
func WithEngineOptions(opts ...systems.Option) ExporterOption {
	return func(e *Exporter) { e.opts = append(e.opts, opts...) }
}

// NewExporter creates an Exporter encoding images as PNG.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{encode: png.Encode, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Last returns the last successful result, or nil.
func (e *Exporter) Last() *Result {
	return e.last
}

// Export bakes settings and packages the result:
//
//	bake → reduce → splice → trim → close loop → build → rasterize → archive
//
// On success the result becomes Last. On failure the error is an *ExportError.
func (e *Exporter) Export(settings particle.Settings) (*Result, error) {
	logger := logging.For("Exporter")
	start := e.now()

	name := settings.Export.SkeletonName
	if name == "" {
		name = particle.DefaultExportSettings().SkeletonName
	}
	dialect, err := skeleton.DialectFor(settings.Export.RuntimeVersion)
	if err != nil {
		return nil, exportErr(err, "export failed")
	}

	bake, err := Bake(settings, e.opts...)
	if err != nil {
		return nil, exportErr(err, "bake failed")
	}

	th := ThresholdsFrom(settings.Export)
	loop := Reduce(bake.Loop, trackedIDs(bake.Loop), th)

	var prewarm []ParticleTrack
	if bake.HasPrewarm() {
		warm := Reduce(bake.Prewarm, trackedIDs(bake.Prewarm), th)
		cont := Reduce(bake.Continuation, mapKeys(bake.PrewarmIDs), th)
		spliced, ids := SpliceContinuation(warm, cont, bake.Duration)
		prewarm = TrimPrewarm(spliced, ids)
	}
	loop = CloseLoop(loop, bake.Duration, func(emitter int) bool {
		return settings.Emitters[emitter].Looping
	})

	id := uuid.New()
	doc, err := BuildDocument(DocumentInput{
		Settings:   &settings,
		Emitters:   bake.Emitters,
		Loop:       loop,
		Prewarm:    prewarm,
		SpriteSize: SpriteSize,
		Hash:       id.String(),
	})
	if err != nil {
		return nil, exportErr(err, "build document failed")
	}
	docJSON, err := skeleton.Encode(doc)
	if err != nil {
		return nil, exportErr(err, "encode document failed")
	}

	files := FileNamesFor(name)
	sprite := RasterizeSprite(spriteKind(&settings, bake.Emitters), SpriteSize)
	spritePNG, err := e.encodeImage(sprite)
	if err != nil {
		return nil, exportErr(err, "could not encode sprite image")
	}

	var frame BakedFrame
	if len(bake.Loop) > 0 {
		frame = bake.Loop[len(bake.Loop)/2]
	}
	previewPNG, err := e.encodeImage(RenderPreview(&settings, frame, sprite))
	if err != nil {
		return nil, exportErr(err, "could not encode preview image")
	}

	atlas := &skeleton.Atlas{
		Image:   files.Sprite,
		Width:   SpriteSize,
		Height:  SpriteSize,
		Regions: []skeleton.AtlasRegion{{Name: RegionName, Width: SpriteSize, Height: SpriteSize}},
	}

	w := archive.NewWriter()
	for _, entry := range []archive.Entry{
		{Name: files.Sprite, Data: spritePNG},
		{Name: files.Preview, Data: previewPNG},
		{Name: files.Atlas, Data: atlas.Encode(dialect)},
		{Name: files.Document, Data: docJSON},
	} {
		if err := w.Add(entry.Name, entry.Data); err != nil {
			return nil, exportErr(err, "could not add %s", entry.Name)
		}
	}
	zipped, err := w.Bytes()
	if err != nil {
		return nil, exportErr(err, "could not write archive")
	}

	res := &Result{
		ID:            id,
		CreatedAt:     start,
		Skeleton:      name,
		Files:         files,
		Archive:       zipped,
		Document:      doc,
		Bake:          bake,
		LoopTracks:    len(loop),
		PrewarmTracks: len(prewarm),
		Keys:          countKeys(loop) + countKeys(prewarm),
	}
	e.last = res

	logger.Info("export complete",
		"skeleton", name,
		"bones", len(doc.Bones),
		"keys", res.Keys,
		"bytes", len(zipped),
		"elapsed", e.now().Sub(start).Round(time.Millisecond))
	return res, nil
}

func (e *Exporter) encodeImage(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// spriteKind picks the sprite of the first baked emitter. All particle slots
// share one atlas region.
func spriteKind(s *particle.Settings, emitters []int) particle.SpriteKind {
	if len(emitters) == 0 {
		return particle.SpriteCircle
	}
	return s.Emitters[emitters[0]].Sprite
}

func countKeys(tracks []ParticleTrack) int {
	n := 0
	for i := range tracks {
		n += tracks[i].KeyCount()
	}
	return n
}

func mapKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
