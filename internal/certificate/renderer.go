package certificate

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	fontRegular = "go-regular"
	fontBold    = "go-bold"
	fontItalic  = "go-italic"
)

type rgb struct{ r, g, b uint8 }

var (
	royalGold   = rgb{0xC9, 0xA9, 0x61}
	deepNavy    = rgb{0x0A, 0x11, 0x28}
	ivory       = rgb{0xFF, 0xFF, 0xF0}
	crimson     = rgb{0x8B, 0x00, 0x00}
	charcoal    = rgb{0x2C, 0x2C, 0x2C}
	softGold    = rgb{0xF4, 0xE4, 0xC1}
	accentGold  = rgb{0xDA, 0xA5, 0x20}
	white       = rgb{0xFF, 0xFF, 0xFF}
	shadow      = rgb{0xD8, 0xD8, 0xD0}
	mutedGrey   = rgb{0xA0, 0xA0, 0xA0}
	lighterGrey = rgb{0xB0, 0xB0, 0xB0}
)

// Renderer lays out the one-page landscape certificate.
type Renderer struct {
	// Issuer is printed under the title.
	Issuer string
}

// Render produces the PDF bytes. Nothing touches storage here.
func (r Renderer) Render(d Data, number string, issuedAt time.Time) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4Landscape})
	pdf.SetInfo(gopdf.PdfInfo{
		Title:        "Certificat de réussite - " + d.ExamTitle,
		Author:       d.TeacherName,
		Subject:      number,
		Creator:      r.issuer(),
		CreationDate: issuedAt,
	})

	for name, ttf := range map[string][]byte{
		fontRegular: goregular.TTF,
		fontBold:    gobold.TTF,
		fontItalic:  goitalic.TTF,
	} {
		if err := pdf.AddTTFFontData(name, ttf); err != nil {
			return nil, fmt.Errorf("load font %s: %w", name, err)
		}
	}
	pdf.AddPage()

	c := &canvas{pdf: pdf, w: gopdf.PageSizeA4Landscape.W, h: gopdf.PageSizeA4Landscape.H}
	date := FormatDate(d.Date)

	c.background()
	bannerBottom := c.banner()
	ornY := c.title(bannerBottom, r.issuer())
	examBoxBottom := c.body(ornY, d)
	c.infoPanel(examBoxBottom, d, date)
	c.footer(d.TeacherName, date, issuedAt.Year())
	c.stamp(number)

	if c.err != nil {
		return nil, c.err
	}
	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r Renderer) issuer() string {
	if r.Issuer == "" {
		return "Plateforme Éducative d'Excellence"
	}
	return r.Issuer
}

// canvas keeps the first drawing error so layout code stays linear.
type canvas struct {
	pdf  *gopdf.GoPdf
	w, h float64
	err  error
}

const margin = 50.0

func (c *canvas) stroke(col rgb, width float64) {
	c.pdf.SetStrokeColor(col.r, col.g, col.b)
	c.pdf.SetLineWidth(width)
}

func (c *canvas) fill(col rgb) {
	c.pdf.SetFillColor(col.r, col.g, col.b)
}

func (c *canvas) rect(x, y, w, h float64, style string) {
	c.pdf.RectFromUpperLeftWithStyle(x, y, w, h, style)
}

func (c *canvas) line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *canvas) polygon(style string, pts ...gopdf.Point) {
	c.pdf.Polygon(pts, style)
}

func (c *canvas) disc(cx, cy, radius float64, col rgb) {
	const segments = 48
	pts := make([]gopdf.Point, segments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / segments
		pts[i] = gopdf.Point{X: cx + radius*math.Cos(a), Y: cy + radius*math.Sin(a)}
	}
	c.fill(col)
	c.stroke(col, 0.1)
	c.polygon("F", pts...)
}

func (c *canvas) diamond(x, y, size float64) {
	c.fill(royalGold)
	c.polygon("F",
		gopdf.Point{X: x, Y: y - size},
		gopdf.Point{X: x + size, Y: y},
		gopdf.Point{X: x, Y: y + size},
		gopdf.Point{X: x - size, Y: y},
	)
}

// text writes s centred in the box (x, y, w, h).
func (c *canvas) text(s, font string, size float64, col rgb, x, y, w, h float64) {
	if c.err != nil {
		return
	}
	if err := c.pdf.SetFont(font, "", size); err != nil {
		c.err = fmt.Errorf("set font: %w", err)
		return
	}
	c.pdf.SetTextColor(col.r, col.g, col.b)
	c.pdf.SetXY(x, y)
	if err := c.pdf.CellWithOption(&gopdf.Rect{W: w, H: h}, s, gopdf.CellOption{Align: gopdf.Center | gopdf.Middle}); err != nil {
		c.err = fmt.Errorf("draw text %q: %w", s, err)
	}
}

// textLeft writes s left-aligned at (x, y).
func (c *canvas) textLeft(s, font string, size float64, col rgb, x, y float64) {
	if c.err != nil {
		return
	}
	if err := c.pdf.SetFont(font, "", size); err != nil {
		c.err = fmt.Errorf("set font: %w", err)
		return
	}
	c.pdf.SetTextColor(col.r, col.g, col.b)
	c.pdf.SetXY(x, y)
	if err := c.pdf.Cell(nil, s); err != nil {
		c.err = fmt.Errorf("draw text %q: %w", s, err)
	}
}

// fit shrinks size until s fits in width.
func (c *canvas) fit(s, font string, size, width float64) float64 {
	for size > 8 {
		if err := c.pdf.SetFont(font, "", size); err != nil {
			return size
		}
		tw, err := c.pdf.MeasureTextWidth(s)
		if err != nil || tw <= width {
			return size
		}
		size--
	}
	return size
}

func (c *canvas) background() {
	c.fill(ivory)
	c.stroke(ivory, 0.1)
	c.rect(0, 0, c.w, c.h, "F")

	inner := margin + 5
	c.fill(white)
	c.rect(inner, inner, c.w-2*inner, c.h-2*inner, "F")

	c.stroke(royalGold, 8)
	c.rect(margin, margin, c.w-2*margin, c.h-2*margin, "D")
	c.stroke(deepNavy, 4)
	c.rect(margin+12, margin+12, c.w-2*margin-24, c.h-2*margin-24, "D")
	c.stroke(accentGold, 2)
	c.rect(margin+20, margin+20, c.w-2*margin-40, c.h-2*margin-40, "D")

	// Corner ornaments: two strokes meeting at each inner corner.
	c.stroke(royalGold, 2.5)
	for _, corner := range [][4]float64{
		{margin + 35, margin + 35, 1, 1},
		{c.w - margin - 35, margin + 35, -1, 1},
		{c.w - margin - 35, c.h - margin - 35, -1, -1},
		{margin + 35, c.h - margin - 35, 1, -1},
	} {
		x, y, dx, dy := corner[0], corner[1], corner[2], corner[3]
		c.line(x, y, x+30*dx, y)
		c.line(x, y, x, y+30*dy)
		c.line(x+10*dx, y+10*dy, x+20*dx, y+25*dy)
	}
}

func (c *canvas) banner() float64 {
	const height = 100.0
	y := margin + 50

	c.fill(softGold)
	c.stroke(royalGold, 3)
	c.rect(margin+80, y, c.w-2*margin-160, height, "FD")

	c.stroke(accentGold, 1.5)
	c.line(margin+90, y+10, c.w-margin-90, y+10)
	c.line(margin+90, y+height-10, c.w-margin-90, y+height-10)

	// Medal with ribbon.
	const radius = 45.0
	mx, my := c.w/2, y+height/2
	c.fill(crimson)
	c.polygon("F",
		gopdf.Point{X: mx - 15, Y: my + radius - 5},
		gopdf.Point{X: mx - 12, Y: my + radius + 35},
		gopdf.Point{X: mx - 8, Y: my + radius + 30},
		gopdf.Point{X: mx - 10, Y: my + radius - 5},
	)
	c.polygon("F",
		gopdf.Point{X: mx + 15, Y: my + radius - 5},
		gopdf.Point{X: mx + 12, Y: my + radius + 35},
		gopdf.Point{X: mx + 8, Y: my + radius + 30},
		gopdf.Point{X: mx + 10, Y: my + radius - 5},
	)
	c.disc(mx+2, my+2, radius+3, shadow)
	c.disc(mx, my, radius, royalGold)
	c.disc(mx, my, radius-8, deepNavy)
	c.disc(mx, my, radius-13, white)

	star := make([]gopdf.Point, 10)
	for i := range star {
		r := 18.0
		if i%2 == 1 {
			r = 9
		}
		a := math.Pi*float64(i)/5 - math.Pi/2
		star[i] = gopdf.Point{X: mx + r*math.Cos(a), Y: my + r*math.Sin(a)}
	}
	c.fill(royalGold)
	c.polygon("F", star...)

	return y + height
}

func (c *canvas) title(top float64, issuer string) float64 {
	y := top + 40
	c.text("CERTIFICAT", fontBold, 52, shadow, 2, y+2, c.w, 52)
	c.text("CERTIFICAT", fontBold, 52, deepNavy, 0, y, c.w, 52)
	c.text("DE RÉUSSITE", fontBold, 32, royalGold, 0, y+50, c.w, 34)

	ornY := y + 95
	const length = 280.0
	x := (c.w - length) / 2
	c.stroke(royalGold, 2)
	c.line(x, ornY, x+length, ornY)
	c.diamond(x, ornY, 6)
	c.diamond(c.w/2, ornY, 8)
	c.diamond(x+length, ornY, 6)

	c.text("Décerné par la "+issuer, fontItalic, 13, charcoal, 0, ornY+14, c.w, 16)
	return ornY
}

func (c *canvas) body(ornY float64, d Data) float64 {
	y := ornY + 65
	c.text("Ce certificat atteste que", fontRegular, 18, charcoal, 0, y, c.w, 20)

	name := strings.ToUpper(d.StudentName)
	size := c.fit(name, fontBold, 42, c.w-2*margin-120)
	c.text(name, fontBold, size, shadow, 1, y+33, c.w, 44)
	c.text(name, fontBold, size, deepNavy, 0, y+32, c.w, 44)

	underline := y + 85
	c.stroke(royalGold, 3)
	c.line(c.w/2-220, underline, c.w/2+220, underline)
	c.stroke(accentGold, 1.5)
	c.line(c.w/2-220, underline+5, c.w/2+220, underline+5)

	c.text("a brillamment réussi l'examen", fontRegular, 17, charcoal, 0, underline+18, c.w, 20)

	const boxW, boxH = 500.0, 60.0
	boxX, boxY := (c.w-boxW)/2, underline+58
	c.fill(softGold)
	c.stroke(royalGold, 2)
	c.rect(boxX, boxY, boxW, boxH, "FD")

	title := "« " + d.ExamTitle + " »"
	c.text(title, fontBold, c.fit(title, fontBold, 24, boxW-40), deepNavy, boxX+20, boxY, boxW-40, boxH)
	return boxY + boxH
}

func (c *canvas) infoPanel(top float64, d Data, date string) {
	const panelW, panelH = 650.0, 120.0
	x, y := (c.w-panelW)/2, top+25

	c.fill(white)
	c.stroke(royalGold, 3)
	c.rect(x, y, panelW, panelH, "FD")
	c.stroke(accentGold, 1)
	c.rect(x+8, y+8, panelW-16, panelH-16, "D")

	startY := y + 25
	col1, col2 := x+50, x+panelW/2+30
	const row = 28.0

	filiere := d.FiliereName
	if filiere == "" {
		filiere = "N/A"
	}
	c.textLeft("FILIÈRE", fontBold, 11, royalGold, col1, startY)
	c.textLeft(filiere, fontRegular, 14, charcoal, col1, startY+14)

	c.textLeft("NOTE OBTENUE", fontBold, 11, royalGold, col1, startY+row+10)
	badgeY := startY + row + 26
	c.fill(deepNavy)
	c.stroke(deepNavy, 0.1)
	c.rect(col1, badgeY, 80, 28, "F")
	c.text(strconv.FormatFloat(d.Percentage, 'f', 2, 64)+"%", fontBold, 16, white, col1, badgeY, 80, 28)

	c.textLeft("ENSEIGNANT", fontBold, 11, royalGold, col2, startY)
	c.textLeft(d.TeacherName, fontRegular, 14, charcoal, col2, startY+14)

	c.textLeft("DATE", fontBold, 11, royalGold, col2, startY+row+10)
	c.textLeft(date, fontRegular, 14, charcoal, col2, startY+row+26)
}

func (c *canvas) footer(teacher, date string, year int) {
	footerY := c.h - margin - 110
	sepY := footerY - 15

	c.stroke(royalGold, 2)
	c.line(margin+100, sepY, c.w/2-80, sepY)
	c.line(c.w/2+80, sepY, c.w-margin-100, sepY)

	const sealR = 50.0
	sx, sy := c.w/2, footerY+35
	c.disc(sx+3, sy+3, sealR, shadow)
	c.disc(sx, sy, sealR, royalGold)
	c.disc(sx, sy, sealR-7, deepNavy)
	c.disc(sx, sy, sealR-14, white)
	c.text("CERTIFIÉ", fontBold, 12, deepNavy, sx-30, sy-20, 60, 14)
	c.text("OFFICIEL", fontRegular, 10, deepNavy, sx-30, sy-3, 60, 12)
	c.text(strconv.Itoa(year), fontRegular, 8, deepNavy, sx-30, sy+12, 60, 10)

	const sigW = 180.0
	sigY := footerY + 30
	for _, sig := range []struct {
		x            float64
		label, value string
	}{
		{margin + 120, "Signature de l'enseignant", teacher},
		{c.w - margin - 300, "Date de délivrance", date},
	} {
		c.text(sig.label, fontBold, 10, charcoal, sig.x, sigY, sigW, 12)
		c.stroke(royalGold, 2)
		c.line(sig.x, sigY+35, sig.x+sigW, sigY+35)
		c.text(sig.value, fontBold, 12, deepNavy, sig.x, sigY+40, sigW, 14)
	}
}

func (c *canvas) stamp(number string) {
	c.text("Numéro de certificat : "+number, fontItalic, 8, mutedGrey, 0, c.h-margin-27, c.w, 10)
	c.text("Ce certificat authentique est généré automatiquement et reste valide.", fontItalic, 7, lighterGrey, 0, c.h-margin-15, c.w, 9)
}
