package docx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register decoder for DecodeConfig
	_ "image/jpeg" // register decoder for DecodeConfig
	"image/png"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-mxe/internal/fileutil"
)

// Image limits, in CSS pixels at 96 DPI.
const (
	maxImageWidth  = 550
	maxImageHeight = 750
	defaultWidth   = 500
	defaultHeight  = 300
	emuPerPixel    = 9525
	maxImageBytes  = 10 << 20
	maxSVGSide     = 1 << 16 // larger viewBoxes are rejected, not scaled
)

// embeddable maps the image types Word displays to their file extension.
var embeddable = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpeg",
	"image/gif":  "gif",
}

// image embeds an img element. Unresolvable or unsupported images are
// logged and replaced by their alt text.
func (b *builder) image(n *html.Node) string {
	src := strings.TrimSpace(attr(n, "src"))
	alt := attr(n, "alt")

	data, err := b.loadImage(src)
	if err != nil {
		b.opts.Logger.Warn("skipping image", zap.String("src", truncate(src, 80)), zap.Error(err))
		return altRun(alt, b.opts)
	}
	run, err := b.embed(data, alt, pixelAttr(n, "width"), pixelAttr(n, "height"))
	if err != nil {
		b.opts.Logger.Warn("skipping image", zap.String("src", truncate(src, 80)), zap.Error(err))
		return altRun(alt, b.opts)
	}
	return run
}

// svgElement rasterizes an inline svg element.
func (b *builder) svgElement(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	run, err := b.embed(buf.Bytes(), attr(n, "aria-label"), 0, 0)
	if err != nil {
		b.opts.Logger.Warn("skipping inline svg", zap.Error(err))
		return ""
	}
	return run
}

func altRun(alt string, opts Options) string {
	if alt == "" {
		return ""
	}
	return textRun("["+alt+"]", runStyle{italic: true}, opts)
}

// loadImage reads a data URI, a file:// URL or a local path under BaseDir.
func (b *builder) loadImage(src string) ([]byte, error) {
	switch {
	case src == "":
		return nil, fmt.Errorf("empty src")
	case strings.HasPrefix(src, "data:"):
		return decodeDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return nil, fmt.Errorf("remote images are not embedded")
	}

	path := src
	if strings.HasPrefix(src, "file://") {
		u, err := url.Parse(src)
		if err != nil {
			return nil, err
		}
		path = filepath.FromSlash(u.Path)
	} else {
		if b.opts.BaseDir == "" {
			return nil, fmt.Errorf("relative path without base directory")
		}
		unescaped, err := url.PathUnescape(src)
		if err == nil {
			path = unescaped
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.opts.BaseDir, path)
		}
		if !fileutil.IsPathUnder(path, b.opts.BaseDir) {
			return nil, fmt.Errorf("path escapes base directory")
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return os.ReadFile(path) // #nosec G304 -- path checked above
}

func decodeDataURI(src string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(src, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(unescaped), nil
}

// embed stores data as a media part and returns the drawing run.
// Width and height of 0 mean "use the image's own size".
func (b *builder) embed(data []byte, alt string, width, height int) (string, error) {
	mtype := mimetype.Detect(data)
	if mtype.Is("image/svg+xml") {
		raster, err := rasterizeSVG(data)
		if err != nil {
			return "", fmt.Errorf("rasterizing svg: %w", err)
		}
		data = raster
		mtype = mimetype.Detect(data)
	}

	var ext string
	for m, e := range embeddable {
		if mtype.Is(m) {
			ext = e
			break
		}
	}
	if ext == "" {
		return "", fmt.Errorf("unsupported image type %s", mtype.String())
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch {
		case width == 0 && height == 0:
			width, height = cfg.Width, cfg.Height
		case width == 0 && cfg.Height > 0:
			width = height * cfg.Width / cfg.Height
		case height == 0 && cfg.Width > 0:
			height = width * cfg.Height / cfg.Width
		}
	}
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	width, height = fit(width, height, maxImageWidth, maxImageHeight)

	b.nextPic++
	name := "image" + strconv.Itoa(b.nextPic) + "." + ext
	b.media = append(b.media, mediaFile{Name: name, Data: data})
	rel := b.addRel(relImage, "media/"+name, false)

	return drawing(b.nextPic, name, alt, rel, width*emuPerPixel, height*emuPerPixel), nil
}

// fit scales w×h down to fit within maxW×maxH, keeping the aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	if w > maxW {
		h = h * maxW / w
		w = maxW
	}
	if h > maxH {
		w = w * maxH / h
		h = maxH
	}
	return max(w, 1), max(h, 1)
}

// rasterizeSVG renders an SVG document to PNG on a white background.
func rasterizeSVG(data []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, err
	}
	vw, vh := icon.ViewBox.W, icon.ViewBox.H
	if math.IsNaN(vw) || math.IsNaN(vh) || vw > maxSVGSide || vh > maxSVGSide {
		return nil, fmt.Errorf("svg viewBox %gx%g exceeds %dx%d", vw, vh, maxSVGSide, maxSVGSide)
	}
	w, h := int(vw), int(vh)
	if w <= 0 || h <= 0 {
		w, h = defaultWidth, defaultHeight
	}
	w, h = fit(w, h, maxImageWidth, maxImageHeight)
	icon.SetTarget(0, 0, float64(w), float64(h))

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pixelAttr parses width="120" or width="120px"; other units yield 0.
func pixelAttr(n *html.Node, key string) int {
	v := strings.TrimSuffix(strings.TrimSpace(attr(n, key)), "px")
	px, err := strconv.Atoi(v)
	if err != nil || px < 0 {
		return 0
	}
	return px
}

func drawing(id int, name, alt, rel string, cx, cy int) string {
	ids := strconv.Itoa(id)
	ext := fmt.Sprintf(`cx="%d" cy="%d"`, cx, cy)
	return `<w:r><w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0">` +
		`<wp:extent ` + ext + `/>` +
		`<wp:docPr id="` + ids + `" name="Picture ` + ids + `" descr="` + escape(alt) + `"/>` +
		`<wp:cNvGraphicFramePr><a:graphicFrameLocks noChangeAspect="1"/></wp:cNvGraphicFramePr>` +
		`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">` +
		`<pic:pic><pic:nvPicPr><pic:cNvPr id="` + ids + `" name="` + name + `"/><pic:cNvPicPr/></pic:nvPicPr>` +
		`<pic:blipFill><a:blip r:embed="` + rel + `"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>` +
		`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext ` + ext + `/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>` +
		`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r>`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
