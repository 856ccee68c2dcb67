package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/localcooks/backend/internal/domain/printing"
	"go.uber.org/zap"
)

const (
	wkDefaultBinary       = "wkhtmltopdf"
	wkDefaultTimeout      = 30 * time.Second
	wkDefaultDPI          = 96
	wkDefaultImageQuality = 94
)

// WkhtmltopdfConfig configures the wkhtmltopdf renderer
type WkhtmltopdfConfig struct {
	BinaryPath       string // searched in PATH when relative
	DefaultTimeout   time.Duration
	TempDir          string
	EnableJavaScript bool // off unless statement templates need it
	JavaScriptDelay  int  // milliseconds
	DPI              int
	ImageQuality     int // 0-100
	Logger           *zap.Logger
}

// WkhtmltopdfRenderer renders claim statements to PDF by shelling out to
// the wkhtmltopdf command-line tool. It is the alternative to
// ChromedpRenderer for deployments without a Chrome install.
type WkhtmltopdfRenderer struct {
	config *WkhtmltopdfConfig
	logger *zap.Logger
}

// NewWkhtmltopdfRenderer creates a wkhtmltopdf renderer. Fails fast when
// the binary cannot be resolved so a misconfigured deployment surfaces at
// startup, not on the first statement download.
func NewWkhtmltopdfRenderer(config *WkhtmltopdfConfig) (*WkhtmltopdfRenderer, error) {
	if config == nil {
		config = &WkhtmltopdfConfig{}
	}
	if config.BinaryPath == "" {
		config.BinaryPath = wkDefaultBinary
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = wkDefaultTimeout
	}
	if config.TempDir == "" {
		config.TempDir = os.TempDir()
	}
	if config.DPI == 0 {
		config.DPI = wkDefaultDPI
	}
	if config.ImageQuality == 0 {
		config.ImageQuality = wkDefaultImageQuality
	}

	binaryPath, err := resolveBinaryPath(config.BinaryPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeBinaryNotFound,
			fmt.Sprintf("wkhtmltopdf binary not found: %s", config.BinaryPath), err)
	}
	config.BinaryPath = binaryPath

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WkhtmltopdfRenderer{
		config: config,
		logger: logger,
	}, nil
}

func resolveBinaryPath(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err != nil {
			return "", err
		}
		return path, nil
	}
	return exec.LookPath(path)
}

// Render converts HTML content to PDF
func (r *WkhtmltopdfRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if req == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	}
	if strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if !req.PaperSize.IsValid() {
		return nil, NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}

	startTime := time.Now()

	timeout := req.Timeout
	if timeout == 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// wkhtmltopdf reads and writes files, not pipes
	htmlPath, err := r.writeTempHTML(req.HTML, "statement-*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to write temp HTML file", err)
	}
	defer os.Remove(htmlPath)

	pdfFile, err := os.CreateTemp(r.config.TempDir, "statement-*.pdf")
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to create temp PDF file", err)
	}
	pdfPath := pdfFile.Name()
	pdfFile.Close()
	defer os.Remove(pdfPath)

	args, temps := r.buildArgs(req, htmlPath, pdfPath)
	defer temps.cleanup()

	r.logger.Debug("executing wkhtmltopdf",
		zap.String("binary", r.config.BinaryPath),
		zap.Strings("args", args))

	cmd := exec.CommandContext(ctx, r.config.BinaryPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, NewRenderError(ErrCodeRenderTimeout,
				fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
		}

		r.logger.Error("wkhtmltopdf failed",
			zap.Error(err),
			zap.String("stderr", stderr.String()),
			zap.String("stdout", stdout.String()))

		return nil, NewRenderError(ErrCodeRenderFailed,
			"wkhtmltopdf execution failed: "+stderr.String(), err)
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "failed to read generated PDF", err)
	}
	if len(pdfData) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	renderDuration := time.Since(startTime)
	pageCount := estimatePageCount(pdfData)

	r.logger.Info("PDF rendered successfully",
		zap.Int("bytes", len(pdfData)),
		zap.Int("pages", pageCount),
		zap.Duration("duration", renderDuration))

	return &RenderResult{
		PDFData:        pdfData,
		PageCount:      pageCount,
		RenderDuration: renderDuration,
	}, nil
}

// tempFiles tracks header and footer files created for one render
type tempFiles struct {
	header string
	footer string
}

func (t *tempFiles) cleanup() {
	if t.header != "" {
		os.Remove(t.header)
	}
	if t.footer != "" {
		os.Remove(t.footer)
	}
}

func (r *WkhtmltopdfRenderer) buildArgs(req *RenderRequest, htmlPath, pdfPath string) ([]string, *tempFiles) {
	temps := &tempFiles{}
	args := []string{
		"--quiet",
		"--encoding", "UTF-8",
		"--dpi", strconv.Itoa(r.config.DPI),
		"--image-quality", strconv.Itoa(r.config.ImageQuality),
	}

	args = append(args, r.buildPaperSizeArgs(req.PaperSize, req.Orientation)...)

	args = append(args,
		"--margin-top", fmt.Sprintf("%dmm", req.Margins.Top),
		"--margin-right", fmt.Sprintf("%dmm", req.Margins.Right),
		"--margin-bottom", fmt.Sprintf("%dmm", req.Margins.Bottom),
		"--margin-left", fmt.Sprintf("%dmm", req.Margins.Left),
	)

	if r.config.EnableJavaScript {
		args = append(args, "--enable-javascript")
		if r.config.JavaScriptDelay > 0 {
			args = append(args, "--javascript-delay", strconv.Itoa(r.config.JavaScriptDelay))
		}
	} else {
		args = append(args, "--disable-javascript")
	}

	if req.EnableLocalFileAccess {
		args = append(args, "--enable-local-file-access")
	} else {
		args = append(args, "--disable-local-file-access")
	}

	if req.Title != "" {
		args = append(args, "--title", req.Title)
	}

	if req.HeaderHTML != "" {
		headerFile, err := r.writeTempHTML(req.HeaderHTML, "header-*.html")
		if err != nil {
			r.logger.Warn("failed to create header temp file", zap.Error(err))
		} else {
			args = append(args, "--header-html", headerFile)
			temps.header = headerFile
		}
	}

	if req.FooterHTML != "" {
		footerFile, err := r.writeTempHTML(req.FooterHTML, "footer-*.html")
		if err != nil {
			r.logger.Warn("failed to create footer temp file", zap.Error(err))
		} else {
			args = append(args, "--footer-html", footerFile)
			temps.footer = footerFile
		}
	}

	args = append(args, htmlPath, pdfPath)

	return args, temps
}

func (r *WkhtmltopdfRenderer) buildPaperSizeArgs(paperSize printing.PaperSize, orientation printing.Orientation) []string {
	var args []string

	width, _ := paperSize.Dimensions()

	switch paperSize {
	case printing.PaperSizeA4:
		args = append(args, "--page-size", "A4")
	case printing.PaperSizeLetter:
		args = append(args, "--page-size", "Letter")
	case printing.PaperSizeReceipt80MM:
		// Receipt paper grows with content, so height stays automatic
		args = append(args,
			"--page-width", fmt.Sprintf("%dmm", width),
			"--page-height", "0",
			"--disable-smart-shrinking",
		)
	default:
		args = append(args, "--page-size", "A4")
	}

	if !paperSize.IsReceipt() {
		if orientation == printing.OrientationLandscape {
			args = append(args, "--orientation", "Landscape")
		} else {
			args = append(args, "--orientation", "Portrait")
		}
	}

	return args
}

func (r *WkhtmltopdfRenderer) writeTempHTML(html, pattern string) (string, error) {
	file, err := os.CreateTemp(r.config.TempDir, pattern)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := file.WriteString(html); err != nil {
		os.Remove(file.Name())
		return "", err
	}

	return file.Name(), nil
}

// Close releases resources (no-op; every render cleans up after itself)
func (r *WkhtmltopdfRenderer) Close() error {
	return nil
}

// estimatePageCount counts page objects in the PDF. "/Type /Page" also
// matches the parent "/Type /Pages" node, which is subtracted back out.
func estimatePageCount(pdfData []byte) int {
	count := bytes.Count(pdfData, []byte("/Type /Page"))
	count -= bytes.Count(pdfData, []byte("/Type /Pages"))
	return max(count, 1)
}

var _ PDFRenderer = (*WkhtmltopdfRenderer)(nil)
