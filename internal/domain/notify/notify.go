// Package notify composes the confirmation email sent after a submission.
package notify

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

// Fixed copy.
const (
	Subject = "¡Gracias por completar el cuestionario!"

	CopyQualifies = "En base a tus respuestas consideramos que tu empresa es candidata para hacer un cambio hacia servidores en la nube. " +
		"Un asesor te estará contactando en un máximo de 48 horas."
	CopyDoesNotQualify = "En base a tus respuestas vemos que esta solución no es la adecuada para tu empresa. " +
		"De igual forma te invitamos a visitar nuestra página web para que veas qué otros servicios podemos ofrecerte."
)

// Default link targets.
const (
	DefaultSiteURL  = "https://www.grupoinforum.com"
	DefaultVideoURL = "https://www.youtube.com/watch?v=b_J0E39c-vA"
)

// Message is a composed email without addressing.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Option applies a configuration option to the Composer.
type Option func(*Composer)

// WithSiteURL sets the website call-to-action link.
func WithSiteURL(u string) Option {
	return func(c *Composer) {
		if u != "" {
			c.siteURL = u
		}
	}
}

// WithVideoURL sets the video link wrapped around the thumbnail.
func WithVideoURL(u string) Option {
	return func(c *Composer) {
		if u != "" {
			c.videoURL = u
		}
	}
}

// WithAssetVersion sets the cache-busting version appended to the thumbnail.
func WithAssetVersion(v string) Option {
	return func(c *Composer) {
		c.assetVersion = v
	}
}

// Composer builds confirmation messages. It is safe for concurrent use.
type Composer struct {
	siteURL      string
	videoURL     string
	assetVersion string
}

// NewComposer creates a Composer with the given options.
func NewComposer(opts ...Option) *Composer {
	c := &Composer{siteURL: DefaultSiteURL, videoURL: DefaultVideoURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy returns the body copy for a verdict.
func Copy(qualifies bool) string {
	if qualifies {
		return CopyQualifies
	}
	return CopyDoesNotQualify
}

// ThumbnailURL returns the video thumbnail URL served from origin.
func (c *Composer) ThumbnailURL(origin string) string {
	u := strings.TrimRight(origin, "/") + "/video.png"
	if c.assetVersion != "" {
		u += "?v=" + url.QueryEscape(c.assetVersion)
	}
	return u
}

// Compose builds the message for a verdict. The output depends only on the
// verdict, the origin and the composer options.
func (c *Composer) Compose(qualifies bool, origin string) Message {
	body := Copy(qualifies)
	text := body + "\n\nMira el video: " + c.videoURL + "\n\nVisita nuestro sitio web: " + c.siteURL

	var buf bytes.Buffer
	// Only plain strings are interpolated; fall back to the escaped copy.
	if err := htmlBody.Execute(&buf, htmlData{
		Copy:     body,
		VideoURL: c.videoURL,
		SiteURL:  c.siteURL,
		ThumbURL: c.ThumbnailURL(origin),
	}); err != nil {
		buf.Reset()
		buf.WriteString(template.HTMLEscapeString(body))
	}

	return Message{Subject: Subject, Text: text, HTML: strings.TrimSpace(buf.String())}
}

type htmlData struct {
	Copy     string
	VideoURL string
	SiteURL  string
	ThumbURL string
}

var htmlBody = template.Must(template.New("confirmation").Parse(`
<div style="font-family:Arial,'Helvetica Neue',Helvetica,sans-serif;line-height:1.55;color:#111">
  <p style="margin:0 0 14px">{{.Copy}}</p>

  <a href="{{.VideoURL}}" target="_blank" rel="noopener" style="text-decoration:none;border:0;display:inline-block;margin:6px 0 18px">
    <img src="{{.ThumbURL}}" width="560" style="max-width:100%;height:auto;border:0;display:block;border-radius:12px" alt="Ver video en YouTube" />
  </a>

  <table role="presentation" cellspacing="0" cellpadding="0" border="0" style="margin:0">
    <tr>
      <td bgcolor="#1D4ED8" style="border-radius:10px">
        <a href="{{.SiteURL}}" target="_blank" rel="noopener"
           style="font-size:16px;line-height:16px;font-weight:600;color:#ffffff;text-decoration:none;padding:12px 18px;display:inline-block">
          Visita nuestro website
        </a>
      </td>
    </tr>
  </table>
</div>
`))
