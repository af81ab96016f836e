package utils

import (
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
)

// DetailBuilder builds key/value blocks for the role and policy show commands.
type DetailBuilder struct {
	b            strings.Builder
	labelWidth   int
	sectionStyle lipgloss.Style
}

// NewDetailBuilder creates a builder with a fixed-width label column.
func NewDetailBuilder(labelWidth int, sectionStyle lipgloss.Style) *DetailBuilder {
	return &DetailBuilder{
		labelWidth:   labelWidth,
		sectionStyle: sectionStyle,
	}
}

// Row writes a labeled key-value row. Empty values render as "-".
func (d *DetailBuilder) Row(label, value string) {
	if value == "" {
		value = "-"
	}
	fmt.Fprintf(&d.b, "  %-*s %s\n", d.labelWidth, label, value)
}

// Section writes a heading like "── title ─────".
func (d *DetailBuilder) Section(title string) {
	pad := max(40-len(title), 4)
	d.b.WriteString(d.sectionStyle.Render(fmt.Sprintf("── %s %s", title, strings.Repeat("─", pad))) + "\n")
}

// Item writes an indented list entry under the current section.
func (d *DetailBuilder) Item(text string) {
	fmt.Fprintf(&d.b, "    %s\n", text)
}

// Blank writes an empty line.
func (d *DetailBuilder) Blank() {
	d.b.WriteString("\n")
}

// String returns the accumulated content.
func (d *DetailBuilder) String() string {
	return d.b.String()
}

// Flush writes the accumulated content to w through lipgloss so colors are
// downsampled for the destination.
func (d *DetailBuilder) Flush(w io.Writer) error {
	_, err := lipgloss.Fprint(w, d.b.String())
	return err
}
