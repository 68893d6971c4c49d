package preview

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var pdfPagesPattern = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

// renderShared renders into the shared artifact set only for requests that
// ask for a thumbnail refresh. Other requests reuse the set when it still
// holds path and otherwise get no image.
func (f *Factory) renderShared(path, out string, flags Flags, render func() error) (string, error) {
	if !flags.RefreshThumbnail {
		if f.artifacts.Holds(path) {
			return out, nil
		}
		return "", nil
	}
	if err := f.artifacts.withShared(path, render); err != nil {
		return "", err
	}
	return out, nil
}

func buildImage(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	magick, err := f.resolve(helperMagick)
	if err != nil {
		return nil, err
	}
	out, err := f.renderShared(path, f.artifacts.Path(thumbnailName), flags, func() error {
		_, err := f.runHelper(ctx, magick, path+"[0]", "-thumbnail", "1024x1024>", f.artifacts.Path(thumbnailName))
		return err
	})
	if err != nil {
		return nil, err
	}
	var info []string
	if desc, err := f.runHelper(ctx, magick, "identify", "-format", "%m %wx%h", path+"[0]"); err == nil {
		info = outputLines(desc)
	}
	return newSharedThumbnail(KindImage, path, out, 0, info, f.artifacts), nil
}

func buildVideo(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	thumbnailer, err := f.resolve(helperFFmpegThumb)
	if err != nil {
		return nil, err
	}
	out := f.artifacts.VideoPath(path)
	exists, isFresh := fresh(out, f.opts.VideoThumbnailTTL, f.now())
	reuse := exists && (isFresh || !flags.RefreshThumbnail)
	if !reuse {
		_, err, _ := f.videos.Do(out, func() (interface{}, error) {
			_, err := f.runHelper(ctx, thumbnailer, "-i", path, "-o", out, "-s", "512")
			return nil, err
		})
		if err != nil {
			return nil, err
		}
	}
	var info []string
	if mediainfo, err := f.resolve(helperMediaInfo); err == nil {
		if desc, err := f.runHelper(ctx, mediainfo, path); err == nil {
			info = outputLines(desc)
		}
	}
	return NewThumbnail(KindVideo, path, out, 0, info), nil
}

func buildFont(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	return f.sharedThumbnail(ctx, KindFont, path, flags, fontName, helperFontImage, func(out string) []string {
		return []string{"-o", out, path}
	})
}

func buildSvg(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	return f.sharedThumbnail(ctx, KindSvg, path, flags, svgName, helperRsvg, func(out string) []string {
		return []string{"--keep-aspect-ratio", "--width", "1024", "--output", out, path}
	})
}

func (f *Factory) sharedThumbnail(ctx context.Context, kind Kind, path string, flags Flags, name, helper string, args func(out string) []string) (Preview, error) {
	bin, err := f.resolve(helper)
	if err != nil {
		return nil, err
	}
	target := f.artifacts.Path(name)
	out, err := f.renderShared(path, target, flags, func() error {
		_, err := f.runHelper(ctx, bin, args(target)...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newSharedThumbnail(kind, path, out, 0, nil, f.artifacts), nil
}

func buildPdf(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	pdftoppm, err := f.resolve(helperPdfToPpm)
	if err != nil {
		return nil, err
	}
	prefix := f.artifacts.Path(pdfPrefix)
	out, err := f.renderShared(path, prefix+".png", flags, func() error {
		return f.renderFirstPage(ctx, pdftoppm, path, prefix)
	})
	if err != nil {
		return nil, err
	}
	return newSharedThumbnail(KindPdf, path, out, f.pdfPages(ctx, path), nil, f.artifacts), nil
}

func buildOffice(ctx context.Context, f *Factory, path string, _ os.FileInfo, flags Flags) (Preview, error) {
	office, err := f.resolve(helperLibreOffice, "soffice")
	if err != nil {
		return nil, err
	}
	pdftoppm, err := f.resolve(helperPdfToPpm)
	if err != nil {
		return nil, err
	}

	converted := f.artifacts.Path(officePdfName)
	prefix := f.artifacts.Path(officePrefix)
	out, err := f.renderShared(path, prefix+".png", flags, func() error {
		if _, err := f.runHelper(ctx, office, "--headless", "--convert-to", "pdf", "--outdir", f.artifacts.Dir(), path); err != nil {
			return err
		}
		produced := filepath.Join(f.artifacts.Dir(), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".pdf")
		if err := os.Rename(produced, converted); err != nil {
			return fmt.Errorf("collect converted document: %w", err)
		}
		return f.renderFirstPage(ctx, pdftoppm, converted, prefix)
	})
	if err != nil {
		return nil, err
	}
	pages := 1
	if out != "" {
		pages = f.pdfPages(ctx, converted)
	}
	return newSharedThumbnail(KindOffice, path, out, pages, nil, f.artifacts), nil
}

func (f *Factory) renderFirstPage(ctx context.Context, pdftoppm, pdf, prefix string) error {
	_, err := f.runHelper(ctx, pdftoppm, "-png", "-f", "1", "-l", "1", "-singlefile", "-scale-to", "1024", pdf, prefix)
	return err
}

// pdfPages asks pdfinfo for the page count and defaults to one page.
func (f *Factory) pdfPages(ctx context.Context, pdf string) int {
	pdfinfo, err := f.resolve(helperPdfInfo)
	if err != nil {
		return 1
	}
	out, err := f.runHelper(ctx, pdfinfo, pdf)
	if err != nil {
		return 1
	}
	return parsePdfPages(out)
}

func parsePdfPages(out []byte) int {
	m := pdfPagesPattern.FindSubmatch(out)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

var errEmptyOutput = errors.New("helper produced no output")
