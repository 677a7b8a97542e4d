package certificate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduplatforme/exam-backend/internal/metrics"
	"github.com/eduplatforme/exam-backend/internal/storage"
)

// Issuer renders a certificate fully in memory, then stores it in one write.
type Issuer struct {
	renderer Renderer
	store    storage.Provider
	now      func() time.Time
	log      zerolog.Logger
}

// NewIssuer creates a new Issuer.
func NewIssuer(store storage.Provider, log zerolog.Logger) *Issuer {
	return &Issuer{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "certificate_issuer").Logger(),
	}
}

// WithClock replaces the time source.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Issue renders and stores the certificate and returns its public reference.
// Errors are *GenerationError and leave nothing stored under the returned name.
func (i *Issuer) Issue(ctx context.Context, d Data) (string, error) {
	start := time.Now()
	at := i.now()
	number := Number(d.AttemptID, at)
	name := Filename(d.AttemptID, at)

	pdf, err := i.renderer.Render(d, number, at)
	if err != nil {
		return "", &GenerationError{Stage: "render", Err: err}
	}
	if err := i.store.Put(ctx, name, pdf, "application/pdf"); err != nil {
		return "", &GenerationError{Stage: "store", Err: err}
	}
	metrics.CertificateRenderDuration.Observe(time.Since(start).Seconds())

	i.log.Info().
		Str("attempt_id", d.AttemptID.String()).
		Str("number", number).
		Str("file", name).
		Int("bytes", len(pdf)).
		Msg("Certificate issued")
	return URLPrefix + name, nil
}

// Discard deletes a stored certificate by its public reference.
func (i *Issuer) Discard(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, URLPrefix)
	if !ValidFilename(name) {
		return fmt.Errorf("invalid certificate reference %q", ref)
	}
	return i.store.Delete(ctx, name)
}
