package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mapaction/mapimporter/internal/services"
	"github.com/mapaction/mapimporter/internal/tui"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/spf13/cobra"
)

// printer writes command results to stdout. Logs go to stderr.
type printer struct {
	w     io.Writer
	style tui.Styler
}

func newPrinter(cmd *cobra.Command) printer {
	return printer{w: cmd.OutOrStdout(), style: tui.AutoStyler()}
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p printer) field(label string, value any) {
	fmt.Fprintf(p.w, "  %s %v\n", p.style.Label(label), value)
}

func (p printer) success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style.Success(tui.SymbolCheck), fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style.Error(tui.SymbolCross), fmt.Sprintf(format, args...))
}

func resourcesSize(resources []mapimporter.Resource) int64 {
	var total int64
	for _, r := range resources {
		total += r.Size
	}
	return total
}

func (p printer) dataset(ds *mapimporter.Dataset) {
	fmt.Fprintln(p.w, p.style.Title(ds.Name))
	p.field("Title", ds.Title)
	p.field("Version", ds.Version)
	if len(ds.Groups) > 0 {
		p.field("Events", strings.Join(ds.Groups, ", "))
	}
	if len(ds.ProductThemes) > 0 {
		p.field("Themes", strings.Join(ds.ProductThemes, ", "))
	}
	if ds.OwnerOrg != "" {
		p.field("Owner", ds.OwnerOrg)
	}
	p.field("Private", ds.Private)
	p.field("Resources", fmt.Sprintf("%d (%s)", len(ds.Resources), humanize.Bytes(uint64(resourcesSize(ds.Resources)))))
	for _, r := range ds.Resources {
		fmt.Fprintf(p.w, "    %s %s %s %s\n", tui.SymbolBullet, r.Name, p.style.Muted(r.Format), p.style.Muted(humanize.Bytes(uint64(r.Size))))
	}
}

func (p printer) inspection(in *services.Inspection) {
	rec := in.Record
	fmt.Fprintln(p.w, p.style.Title(rec.Name))
	p.field("Title", rec.Title)
	p.field("Version", rec.Version)
	p.field("Status", rec.Status)
	p.field("Series", in.SeriesName)
	p.field("Event", in.Event)
	if len(rec.ProductThemes) > 0 {
		p.field("Themes", strings.Join(rec.ProductThemes, ", "))
	}
	p.field("Metadata", in.MetadataFile)
	for _, ignored := range in.IgnoredMetadata {
		fmt.Fprintf(p.w, "    %s %s\n", p.style.Warning("ignored"), ignored)
	}
	var total int64
	for _, f := range in.Files {
		total += f.Size
	}
	p.field("Files", fmt.Sprintf("%d (%s)", len(in.Files), humanize.Bytes(uint64(total))))
	for _, f := range in.Files {
		fmt.Fprintf(p.w, "    %s %s %s %s\n", tui.SymbolBullet, f.Name, p.style.Muted(f.Format), p.style.Muted(humanize.Bytes(uint64(f.Size))))
	}
	if in.Action != "" {
		p.field("Action", in.Action)
	}
}
