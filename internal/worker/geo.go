package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arthurspriet/hawk-ai-go/internal/domain"
)

// Geo is the `geo` worker: triggered by geographic cues, it clusters
// fused evidence by a metadata location key and renders a static
// artifact. Real geospatial clustering math is deliberately out of scope
// here — clustering means grouping evidence by its declared location
// field, not coordinate-space clustering.
type Geo struct {
	ArtifactDir string // e.g. "data/maps"
}

func (g *Geo) ID() domain.WorkerID    { return domain.WorkerGeo }
func (g *Geo) RequiresEvidence() bool { return true }

func (g *Geo) Run(ctx context.Context, queryText string, evidence *domain.FusedEvidence, progress ProgressFunc) domain.WorkerResult {
	progress("clustering evidence by location")

	clusters := clusterByLocation(evidence)
	if ctx.Err() != nil {
		return domain.WorkerResult{Status: domain.StatusError, ErrorKind: "cancelled"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Geospatial breakdown for %q:\n", queryText)
	locations := make([]string, 0, len(clusters))
	for loc := range clusters {
		locations = append(locations, loc)
	}
	sort.Strings(locations)
	for _, loc := range locations {
		fmt.Fprintf(&b, "- %s: %d evidence record(s)\n", loc, clusters[loc])
		progress(fmt.Sprintf("cluster: %s", loc))
	}

	var artifacts []string
	if g.ArtifactDir != "" {
		path, err := writeClusterArtifact(g.ArtifactDir, queryText, locations, clusters)
		if err == nil {
			artifacts = append(artifacts, path)
		}
	}

	return domain.WorkerResult{
		Status:           domain.StatusOK,
		OutputText:       b.String(),
		StructuredOutput: map[string]any{"clusters": clusters},
		Artifacts:        artifacts,
		EvidenceUsed:     evidence,
	}
}

func clusterByLocation(evidence *domain.FusedEvidence) map[string]int {
	clusters := make(map[string]int)
	if evidence == nil {
		return clusters
	}
	for _, rec := range evidence.Records {
		loc := "unknown"
		if rec.Metadata != nil {
			if c, ok := rec.Metadata["country"].(string); ok && c != "" {
				loc = c
			}
		}
		clusters[loc]++
	}
	return clusters
}

func writeClusterArtifact(dir, queryText string, locations []string, clusters map[string]int) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("geo_%d.html", len(locations))
	path := filepath.Join(dir, name)

	var b strings.Builder
	b.WriteString("<!doctype html><html><body>\n")
	fmt.Fprintf(&b, "<h1>Geospatial clusters: %s</h1>\n<ul>\n", htmlEscape(queryText))
	for _, loc := range locations {
		fmt.Fprintf(&b, "<li>%s: %d</li>\n", htmlEscape(loc), clusters[loc])
	}
	b.WriteString("</ul></body></html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
