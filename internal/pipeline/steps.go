package pipeline

import (
	"context"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/nao1215/offlinify/internal/document"
	"github.com/nao1215/offlinify/internal/rewrite"
	"github.com/nao1215/offlinify/internal/sanitize"
	"github.com/nao1215/offlinify/internal/urlclass"
)

// Step names, in execution order.
const (
	StepLocalizeImages      = "localize_images"
	StepLocalizeSrcset      = "localize_srcset"
	StepLocalizeMeta        = "localize_meta"
	StepRewriteStyleBlocks  = "rewrite_style_blocks"
	StepRewriteInlineStyles = "rewrite_inline_styles"
	StepRemoveImageWall     = "remove_image_wall"
	StepSanitizeDOM         = "sanitize_dom"
)

var (
	imgSelector    = cascadia.MustCompile("img")
	srcsetSelector = cascadia.MustCompile("img[srcset], source[srcset]")
	metaSelector   = cascadia.MustCompile("meta")
	styleSelector  = cascadia.MustCompile("style")
	inlineSelector = cascadia.MustCompile("[style]")
)

// imageSourceAttributes are checked in order for the real image URL.
// Lazy-loading pages keep it in a data- attribute and put a placeholder in src.
var imageSourceAttributes = []string{
	"data-src",
	"data-original",
	"data-actualsrc",
	"data-backup-src",
	"src",
}

// DefaultSteps returns the document steps in their required order.
func DefaultSteps() []Step {
	return []Step{
		&LocalizeImagesStep{},
		&LocalizeSrcsetStep{},
		&LocalizeMetaStep{},
		&RewriteStyleBlocksStep{},
		&RewriteInlineStylesStep{},
		&RemoveImageWallStep{},
		&SanitizeDOMStep{},
	}
}

// LocalizeImagesStep points every <img> at a local copy of its image.
type LocalizeImagesStep struct{}

// Name returns the step name.
func (s *LocalizeImagesStep) Name() string {
	return StepLocalizeImages
}

// Do executes the image localization step.
//
// The first candidate attribute holding a data: URI or a remote URL wins;
// a plain local src is only used when no candidate qualifies. A remote
// winner is downloaded and written to src. A data: winner leaves src as it
// is. Afterwards every other attribute with a remote value is removed.
func (s *LocalizeImagesStep) Do(ctx context.Context, job *Job) error {
	for _, img := range imgSelector.MatchAll(job.Doc.Root) {
		src := imageSource(img)
		if urlclass.IsRemote(src) {
			document.SetAttr(img, "src", job.Cache.Resolve(ctx, src))
		}

		job.Report.RemovedAttributes += document.RemoveAttrs(img, func(a html.Attribute) bool {
			if a.Namespace == "" && a.Key == "src" {
				return false
			}
			if sanitize.IsTokenListAttribute("img", a) {
				return false
			}
			return urlclass.IsRemote(a.Val)
		})
	}
	return nil
}

// imageSource picks the URL an <img> should display.
func imageSource(img *html.Node) string {
	chosen := ""
	for _, key := range imageSourceAttributes {
		v := strings.TrimSpace(document.Attr(img, key))
		if v == "" {
			continue
		}
		if strings.HasPrefix(v, "data:") || urlclass.IsRemote(v) {
			return v
		}
		if key == "src" {
			chosen = v
		}
	}
	return chosen
}

// LocalizeSrcsetStep rewrites srcset attributes of <img> and <source>.
type LocalizeSrcsetStep struct{}

// Name returns the step name.
func (s *LocalizeSrcsetStep) Name() string {
	return StepLocalizeSrcset
}

// Do executes the srcset localization step.
func (s *LocalizeSrcsetStep) Do(ctx context.Context, job *Job) error {
	for _, n := range srcsetSelector.MatchAll(job.Doc.Root) {
		srcset := strings.TrimSpace(document.Attr(n, "srcset"))
		if srcset == "" {
			continue
		}
		document.SetAttr(n, "srcset", rewrite.RewriteSrcset(ctx, srcset, job.Cache))
	}
	return nil
}

// LocalizeMetaStep localizes share images and drops metas that point outside.
type LocalizeMetaStep struct{}

// Name returns the step name.
func (s *LocalizeMetaStep) Name() string {
	return StepLocalizeMeta
}

// Do executes the meta step.
func (s *LocalizeMetaStep) Do(ctx context.Context, job *Job) error {
	remove := make([]*html.Node, 0)

	for _, meta := range metaSelector.MatchAll(job.Doc.Root) {
		key := strings.TrimSpace(document.Attr(meta, "property"))
		if key == "" {
			key = strings.TrimSpace(document.Attr(meta, "name"))
		}
		key = strings.ToLower(key)

		content := strings.TrimSpace(document.Attr(meta, "content"))
		if content == "" {
			continue
		}

		switch {
		case (key == "og:image" || key == "twitter:image") && urlclass.IsRemote(content):
			document.SetAttr(meta, "content", job.Cache.Resolve(ctx, content))
		case (key == "og:url" || key == "twitter:url") &&
			(strings.HasPrefix(content, "http") || strings.HasPrefix(content, "//")):
			remove = append(remove, meta)
		case urlclass.ContainsURL(content):
			remove = append(remove, meta)
		}
	}

	for _, meta := range remove {
		if meta.Parent != nil {
			meta.Parent.RemoveChild(meta)
			job.Report.RemovedElements++
		}
	}
	return nil
}

// RewriteStyleBlocksStep rewrites url() tokens inside <style> elements.
type RewriteStyleBlocksStep struct{}

// Name returns the step name.
func (s *RewriteStyleBlocksStep) Name() string {
	return StepRewriteStyleBlocks
}

// Do executes the style block step.
func (s *RewriteStyleBlocksStep) Do(ctx context.Context, job *Job) error {
	for _, style := range styleSelector.MatchAll(job.Doc.Root) {
		for c := style.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode && c.Data != "" {
				c.Data = rewrite.RewriteCSS(ctx, c.Data, job.Cache)
			}
		}
	}
	return nil
}

// RewriteInlineStylesStep rewrites url() tokens inside style attributes.
type RewriteInlineStylesStep struct{}

// Name returns the step name.
func (s *RewriteInlineStylesStep) Name() string {
	return StepRewriteInlineStyles
}

// Do executes the inline style step.
func (s *RewriteInlineStylesStep) Do(ctx context.Context, job *Job) error {
	for _, n := range inlineSelector.MatchAll(job.Doc.Root) {
		style := strings.TrimSpace(document.Attr(n, "style"))
		if style == "" || !rewrite.HasCSSURL(style) {
			continue
		}
		document.SetAttr(n, "style", rewrite.RewriteCSS(ctx, style, job.Cache))
	}
	return nil
}

// RemoveImageWallStep deletes the trailing thumbnail wall.
// It must run after image localization, which makes wall images local.
type RemoveImageWallStep struct{}

// Name returns the step name.
func (s *RemoveImageWallStep) Name() string {
	return StepRemoveImageWall
}

// Do executes the wall removal step.
func (s *RemoveImageWallStep) Do(_ context.Context, job *Job) error {
	removed := sanitize.RemoveTrailingImageWall(job.Doc.Root)
	if removed > 0 {
		job.Logger.Debug("removed trailing image wall", "images", removed)
	}
	job.Report.RemovedWallImages += removed
	return nil
}

// SanitizeDOMStep removes every remaining remote reference from the tree.
type SanitizeDOMStep struct{}

// Name returns the step name.
func (s *SanitizeDOMStep) Name() string {
	return StepSanitizeDOM
}

// Do executes the sanitize step.
func (s *SanitizeDOMStep) Do(_ context.Context, job *Job) error {
	stats := sanitize.Sanitize(job.Doc.Root)
	job.Report.RemovedElements += stats.RemovedElements
	job.Report.RemovedAttributes += stats.RemovedAttributes
	job.Report.RewrittenAnchors += stats.RewrittenAnchors
	return nil
}
